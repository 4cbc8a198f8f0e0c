package vpic

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Operation names a vPIC service. Values match the remote service names.
type Operation string

const (
	OpDecodeVIN                      Operation = "DecodeVin"
	OpDecodeVINExtended              Operation = "DecodeVinExtended"
	OpDecodeVINValues                Operation = "DecodeVinValues"
	OpDecodeVINBatch                 Operation = "DecodeVINValuesBatch"
	OpDecodeWMI                      Operation = "DecodeWMI"
	OpDecodeSAEWMI                   Operation = "DecodeSAEWMI"
	OpGetWMIsForManufacturer         Operation = "GetWMIsForManufacturer"
	OpGetSAEWMIsForManufacturer      Operation = "GetSAEWMIsForManufacturer"
	OpGetAllMakes                    Operation = "GetAllMakes"
	OpGetParts                       Operation = "GetParts"
	OpGetAllManufacturers            Operation = "GetAllManufacturers"
	OpGetManufacturerDetails         Operation = "GetManufacturerDetails"
	OpGetMakesForManufacturer        Operation = "GetMakesForManufacturer"
	OpGetMakesForManufacturerAndYear Operation = "GetMakesForManufacturerAndYear"
	OpGetMakesForVehicleType         Operation = "GetMakesForVehicleType"
	OpGetVehicleTypesForMake         Operation = "GetVehicleTypesForMake"
	OpGetVehicleTypesForMakeID       Operation = "GetVehicleTypesForMakeId"
	OpGetEquipmentPlantCodes         Operation = "GetEquipmentPlantCodes"
	OpGetModelsForMake               Operation = "GetModelsForMake"
	OpGetModelsForMakeID             Operation = "GetModelsForMakeId"
	OpGetModelsForMakeIDYear         Operation = "GetModelsForMakeIdYear"
	OpGetVehicleVariableList         Operation = "GetVehicleVariableList"
	OpGetVehicleVariableValuesList   Operation = "GetVehicleVariableValuesList"
)

// Argument names shared by the endpoint table and the typed methods.
const (
	ArgVIN           = "vin"
	ArgModelYear     = "modelyear"
	ArgData          = "data"
	ArgWMI           = "wmi"
	ArgManufacturer  = "manufacturer"
	ArgYear          = "year"
	ArgType          = "type"
	ArgFromDate      = "fromDate"
	ArgToDate        = "toDate"
	ArgPage          = "page"
	ArgVehicleType   = "vehicleType"
	ArgMake          = "make"
	ArgMakeID        = "makeId"
	ArgEquipmentType = "equipmentType"
	ArgReportType    = "reportType"
	ArgVariable      = "variable"
)

// Args carries operation arguments by name. An empty value means "not supplied".
type Args map[string]string

// segment is an optional "label/value" pair appended to the path when present.
type segment struct {
	label string
	arg   string
}

// field is a query (GET) or form (POST) field.
type field struct {
	name     string
	arg      string
	def      string
	required bool
}

// endpoint describes one operation. Path placeholders ({name}) are required
// arguments; segments are appended in declaration order.
type endpoint struct {
	method   string
	path     string
	segments []segment
	fields   []field
}

var endpoints = map[Operation]endpoint{
	OpDecodeVIN: {
		method: http.MethodGet,
		path:   "vehicles/DecodeVin/{vin}",
		fields: []field{{name: "modelyear", arg: ArgModelYear}},
	},
	OpDecodeVINExtended: {
		method: http.MethodGet,
		path:   "vehicles/DecodeVinExtended/{vin}",
		fields: []field{{name: "modelyear", arg: ArgModelYear}},
	},
	OpDecodeVINValues: {
		method: http.MethodGet,
		path:   "vehicles/DecodeVinValues/{vin}",
		fields: []field{{name: "modelyear", arg: ArgModelYear}},
	},
	OpDecodeVINBatch: {
		method: http.MethodPost,
		path:   "vehicles/DecodeVINValuesBatch",
		fields: []field{{name: "data", arg: ArgData, required: true}},
	},
	OpDecodeWMI:                 {method: http.MethodGet, path: "vehicles/DecodeWMI/{wmi}"},
	OpDecodeSAEWMI:              {method: http.MethodGet, path: "vehicles/DecodeSAEWMI/{wmi}"},
	OpGetWMIsForManufacturer:    {method: http.MethodGet, path: "vehicles/GetWMIsForManufacturer/{manufacturer}"},
	OpGetSAEWMIsForManufacturer: {method: http.MethodGet, path: "vehicles/GetSAEWMIsForManufacturer/{manufacturer}"},
	OpGetAllMakes:               {method: http.MethodGet, path: "vehicles/GetAllMakes"},
	OpGetParts: {
		method: http.MethodGet,
		path:   "vehicles/GetParts",
		fields: []field{
			{name: "type", arg: ArgType},
			{name: "fromDate", arg: ArgFromDate},
			{name: "toDate", arg: ArgToDate},
			{name: "page", arg: ArgPage, def: "1"},
		},
	},
	OpGetAllManufacturers: {
		method: http.MethodGet,
		path:   "vehicles/GetAllManufacturers",
		fields: []field{{name: "page", arg: ArgPage, def: "1"}},
	},
	OpGetManufacturerDetails:  {method: http.MethodGet, path: "vehicles/GetManufacturerDetails/{manufacturer}"},
	OpGetMakesForManufacturer: {method: http.MethodGet, path: "vehicles/GetMakesForManufacturer/{manufacturer}"},
	OpGetMakesForManufacturerAndYear: {
		method: http.MethodGet,
		path:   "vehicles/GetMakesForManufacturerAndYear/{manufacturer}",
		fields: []field{{name: "year", arg: ArgYear, required: true}},
	},
	OpGetMakesForVehicleType:   {method: http.MethodGet, path: "vehicles/GetMakesForVehicleType/{vehicleType}"},
	OpGetVehicleTypesForMake:   {method: http.MethodGet, path: "vehicles/GetVehicleTypesForMake/{make}"},
	OpGetVehicleTypesForMakeID: {method: http.MethodGet, path: "vehicles/GetVehicleTypesForMakeId/{makeId}"},
	OpGetEquipmentPlantCodes: {
		method: http.MethodGet,
		path:   "vehicles/GetEquipmentPlantCodes",
		fields: []field{
			{name: "year", arg: ArgYear, def: "2016"},
			{name: "equipmentType", arg: ArgEquipmentType},
			{name: "reportType", arg: ArgReportType, def: "all"},
		},
	},
	OpGetModelsForMake:   {method: http.MethodGet, path: "vehicles/GetModelsForMake/{make}"},
	OpGetModelsForMakeID: {method: http.MethodGet, path: "vehicles/GetModelsForMakeId/{makeId}"},
	OpGetModelsForMakeIDYear: {
		method: http.MethodGet,
		path:   "vehicles/GetModelsForMakeIdYear/makeId/{makeId}",
		segments: []segment{
			{label: "modelyear", arg: ArgModelYear},
			{label: "vehicletype", arg: ArgVehicleType},
		},
	},
	OpGetVehicleVariableList:       {method: http.MethodGet, path: "vehicles/GetVehicleVariableList"},
	OpGetVehicleVariableValuesList: {method: http.MethodGet, path: "vehicles/GetVehicleVariableValuesList/{variable}"},
}

// Operations lists every supported operation in lexical order.
func Operations() []Operation {
	out := make([]Operation, 0, len(endpoints))
	for op := range endpoints {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Describe returns a one-line summary of an operation: method, path and arguments.
func Describe(op Operation) (string, bool) {
	ep, ok := endpoints[op]
	if !ok {
		return "", false
	}

	var b strings.Builder
	b.WriteString(ep.method)
	b.WriteByte(' ')
	b.WriteString(ep.path)
	for _, s := range ep.segments {
		b.WriteString("[/" + s.label + "/{" + s.arg + "}]")
	}
	for i, f := range ep.fields {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString("&")
		}
		b.WriteString(f.name)
		switch {
		case f.required:
			b.WriteString("=<required>")
		case f.def != "":
			b.WriteString("=" + f.def)
		}
	}
	return b.String(), true
}

// resolve expands the endpoint's path and fields for the given arguments.
func (ep endpoint) resolve(op Operation, args Args) (string, Params, error) {
	path, err := expandPath(op, ep.path, args)
	if err != nil {
		return "", nil, err
	}

	for _, s := range ep.segments {
		if v := strings.TrimSpace(args[s.arg]); v != "" {
			path += "/" + s.label + "/" + escapeSegment(v)
		}
	}

	var params Params
	for _, f := range ep.fields {
		v := args[f.arg]
		if v == "" {
			v = f.def
		}
		if v == "" {
			if f.required {
				return "", nil, &InvalidArgumentError{Operation: op, Param: f.arg, Reason: "is required"}
			}
			continue
		}
		params.Set(f.name, v)
	}
	return path, params, nil
}

// expandPath substitutes {name} placeholders with escaped argument values.
func expandPath(op Operation, tmpl string, args Args) (string, error) {
	var b strings.Builder
	rest := tmpl
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end += start

		name := rest[start+1 : end]
		val := strings.TrimSpace(args[name])
		if val == "" {
			return "", &InvalidArgumentError{Operation: op, Param: name, Reason: "is required"}
		}

		b.WriteString(rest[:start])
		b.WriteString(escapeSegment(val))
		rest = rest[end+1:]
	}
}

// escapeSegment path-escapes a value but keeps '*', the partial VIN wildcard.
func escapeSegment(v string) string {
	return strings.ReplaceAll(url.PathEscape(v), "%2A", "*")
}
