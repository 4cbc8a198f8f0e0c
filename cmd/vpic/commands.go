package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Adda-Baaj/vpic-harvester/internal/config"
	"github.com/Adda-Baaj/vpic-harvester/internal/logger"
	"github.com/Adda-Baaj/vpic-harvester/internal/storage"
	"github.com/Adda-Baaj/vpic-harvester/pkg/httpclient"
	"github.com/Adda-Baaj/vpic-harvester/pkg/sources"
	"github.com/Adda-Baaj/vpic-harvester/pkg/vpic"
	"github.com/spf13/cobra"
)

type state struct {
	baseURL   string
	format    string
	userAgent string
	timeout   time.Duration
	dbPath    string
	log       logger.Logger
	out       io.Writer
}

func (s *state) client(format vpic.Format) (*vpic.Client, error) {
	if format == "" {
		f, err := vpic.ParseFormat(s.format)
		if err != nil {
			return nil, err
		}
		format = f
	}
	headers := map[string]string{}
	if s.userAgent != "" {
		headers["User-Agent"] = s.userAgent
	}
	return vpic.NewClient(vpic.Config{
		BaseURL: s.baseURL,
		Format:  format,
		Headers: headers,
	}, httpclient.NewRestyClient(s.timeout))
}

func (s *state) writeJSON(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd(cfg *config.Config, log logger.Logger, out io.Writer) *cobra.Command {
	if log == nil {
		log = logger.NopLogger{}
	}
	st := &state{log: log, out: out}

	rootCmd := &cobra.Command{
		Use:          "vpic",
		Long:         `Query the NHTSA vPIC vehicle API`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&st.baseURL, "base-url", cfg.VPICBaseURL, "vPIC API base URL")
	flags.StringVar(&st.format, "format", cfg.VPICFormat, "response format (json, xml, csv)")
	flags.StringVar(&st.userAgent, "user-agent", cfg.UserAgent, "User-Agent header sent with every request")
	flags.DurationVar(&st.timeout, "timeout", cfg.HTTPTimeout, "request timeout (0 disables)")
	flags.StringVar(&st.dbPath, "db", cfg.BBoltPath, "harvester archive (bbolt file)")

	rootCmd.AddCommand(
		operationsCmd(st),
		callCmd(st),
		rawCmd(st),
		decodeCmd(st),
		batchCmd(st),
		archivedCmd(st),
	)
	return rootCmd
}

func operationsCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List supported operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, op := range vpic.Operations() {
				desc, _ := vpic.Describe(op)
				fmt.Fprintf(st.out, "%-32s %s\n", op, desc)
			}
			return nil
		},
	}
}

func callCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "call <operation> [key=value...]",
		Short: "Call an operation and print the raw response body",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := resolveOperation(args[0])
			if err != nil {
				return err
			}
			callArgs, err := parseArgs(args[1:])
			if err != nil {
				return err
			}

			client, err := st.client("")
			if err != nil {
				return err
			}
			req, err := client.BuildRequest(op, callArgs)
			if err != nil {
				return err
			}
			st.log.DebugObj("vpic request", "request", map[string]any{
				"operation": op,
				"method":    req.Method,
				"url":       req.FullURL(),
			})

			resp, err := client.Do(contextOf(cmd), req)
			if err != nil {
				return err
			}
			if _, err := st.out.Write(resp.Body()); err != nil {
				return err
			}
			return vpic.CheckStatus(resp)
		},
	}
}

func rawCmd(st *state) *cobra.Command {
	var post bool

	cmd := &cobra.Command{
		Use:   "raw <path> [key=value...]",
		Short: "Send a GET (or form POST) to a path under the base URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseArgs(args[1:])
			if err != nil {
				return err
			}
			params := vpic.ParamsFromMap(fields)

			client, err := st.client("")
			if err != nil {
				return err
			}

			send, method := client.Get, http.MethodGet
			if post {
				send, method = client.Post, http.MethodPost
			}
			st.log.DebugObj("vpic raw request", "request", map[string]any{
				"method": method,
				"path":   args[0],
				"fields": params.Encode(),
			})

			resp, err := send(contextOf(cmd), args[0], params)
			if err != nil {
				return err
			}
			if _, err := st.out.Write(resp.Body()); err != nil {
				return err
			}
			return vpic.CheckStatus(resp)
		},
	}
	cmd.Flags().BoolVar(&post, "post", false, "send the fields as a form-encoded POST body")
	return cmd
}

func decodeCmd(st *state) *cobra.Command {
	var year int
	var extended bool

	cmd := &cobra.Command{
		Use:   "decode <vin>",
		Short: "Decode a VIN and print the flattened variables as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := st.client(vpic.FormatJSON)
			if err != nil {
				return err
			}

			decode := client.DecodeVIN
			if extended {
				decode = client.DecodeVINExtended
			}
			resp, err := decode(contextOf(cmd), args[0], year)
			if err != nil {
				return err
			}
			if err := vpic.CheckStatus(resp); err != nil {
				return err
			}

			flat, err := vpic.Flatten(resp.Body())
			if err != nil {
				return err
			}
			return st.writeJSON(flat)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "model year (0 omits it)")
	cmd.Flags().BoolVar(&extended, "extended", false, "use DecodeVinExtended")
	return cmd
}

func batchCmd(st *state) *cobra.Command {
	var vinColumn, yearColumn string

	cmd := &cobra.Command{
		Use:   "batch <csv>",
		Short: "Batch decode the VINs listed in a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := sources.LoadRows(args[0])
			if err != nil {
				return err
			}
			pairs, err := sources.PairsFromRows(rows, vinColumn, yearColumn)
			if err != nil {
				return err
			}

			client, err := st.client(vpic.FormatJSON)
			if err != nil {
				return err
			}

			results := make([]map[string]string, 0, len(pairs))
			for start := 0; start < len(pairs); start += vpic.MaxBatchSize {
				batch := pairs[start:min(start+vpic.MaxBatchSize, len(pairs))]
				resp, err := client.DecodeVINBatch(contextOf(cmd), batch)
				if err != nil {
					return err
				}
				if err := vpic.CheckStatus(resp); err != nil {
					return err
				}
				rows, err := vpic.DecodeBatchResults(resp.Body())
				if err != nil {
					return err
				}
				st.log.DebugObj("vin batch decoded", "batch_result", map[string]any{
					"requested": len(batch),
					"returned":  len(rows),
				})
				results = append(results, rows...)
			}
			return st.writeJSON(results)
		},
	}
	cmd.Flags().StringVar(&vinColumn, "vin-column", "vin", "CSV column holding the VIN")
	cmd.Flags().StringVar(&yearColumn, "year-column", "year", "CSV column holding the model year")
	return cmd
}

func archivedCmd(st *state) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "archived <vin>",
		Short: "Show a vehicle from the harvester archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(st.dbPath); err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("archive %s not found", st.dbPath)
				}
				return err
			}
			store, err := storage.NewStore("bbolt", st.dbPath, storage.Options{})
			if err != nil {
				return err
			}
			defer store.Close()

			vehicle, ok, err := store.Lookup(storage.Key(args[0], year))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("vin %s is not archived", args[0])
			}
			return st.writeJSON(vehicle)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "model year the VIN was decoded with")
	return cmd
}

// resolveOperation matches an operation name case-insensitively.
func resolveOperation(name string) (vpic.Operation, error) {
	for _, op := range vpic.Operations() {
		if strings.EqualFold(string(op), name) {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operation %q (see \"vpic operations\")", name)
}

func parseArgs(raw []string) (vpic.Args, error) {
	args := make(vpic.Args, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("argument %q must be key=value", kv)
		}
		args[strings.TrimSpace(k)] = v
	}
	return args, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
