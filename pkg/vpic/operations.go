package vpic

import (
	"context"
	"strconv"

	"github.com/Adda-Baaj/vpic-harvester/pkg/httpclient"
)

const (
	defaultVehicleType = "car"
	defaultVariable    = "battery"
)

// PartsQuery filters GetParts. Zero values are omitted; Page defaults to 1.
type PartsQuery struct {
	Type     int
	FromDate string
	ToDate   string
	Page     int
}

// EquipmentPlantQuery filters GetEquipmentPlantCodes. Year defaults to 2016 and
// ReportType to "all"; a zero EquipmentType is omitted.
//
// Equipment types: 1 tires, 3 brake hoses, 13 glazing, 16 retread.
// Report types: new, updated, closed, all.
type EquipmentPlantQuery struct {
	Year          int
	EquipmentType int
	ReportType    string
}

func optInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// DecodeVIN decodes a full or partial VIN ("*" marks unknown positions).
// A zero modelYear is omitted.
func (c *Client) DecodeVIN(ctx context.Context, vin string, modelYear int) (httpclient.Response, error) {
	return c.Call(ctx, OpDecodeVIN, Args{ArgVIN: vin, ArgModelYear: optInt(modelYear)})
}

// DecodeVINExtended is DecodeVIN plus variables used by other NHTSA programs.
func (c *Client) DecodeVINExtended(ctx context.Context, vin string, modelYear int) (httpclient.Response, error) {
	return c.Call(ctx, OpDecodeVINExtended, Args{ArgVIN: vin, ArgModelYear: optInt(modelYear)})
}

// DecodeVINValues decodes a VIN into a single flat result object.
func (c *Client) DecodeVINValues(ctx context.Context, vin string, modelYear int) (httpclient.Response, error) {
	return c.Call(ctx, OpDecodeVINValues, Args{ArgVIN: vin, ArgModelYear: optInt(modelYear)})
}

// DecodeVINBatch decodes many VINs in one POST.
func (c *Client) DecodeVINBatch(ctx context.Context, pairs []VINYear) (httpclient.Response, error) {
	return c.Call(ctx, OpDecodeVINBatch, Args{ArgData: EncodeBatch(pairs)})
}

// DecodeWMI accepts the 3 character form (VIN positions 1-3) or the 6 character
// form (positions 1-3 and 12-14).
func (c *Client) DecodeWMI(ctx context.Context, wmi string) (httpclient.Response, error) {
	return c.Call(ctx, OpDecodeWMI, Args{ArgWMI: wmi})
}

func (c *Client) DecodeSAEWMI(ctx context.Context, wmi string) (httpclient.Response, error) {
	return c.Call(ctx, OpDecodeSAEWMI, Args{ArgWMI: wmi})
}

// GetWMIsForManufacturer lists WMIs registered in vPIC for a manufacturer.
func (c *Client) GetWMIsForManufacturer(ctx context.Context, manufacturer string) (httpclient.Response, error) {
	return c.Call(ctx, OpGetWMIsForManufacturer, Args{ArgManufacturer: manufacturer})
}

// GetSAEWMIsForManufacturer lists all SAE-registered WMIs for a manufacturer.
func (c *Client) GetSAEWMIsForManufacturer(ctx context.Context, manufacturer string) (httpclient.Response, error) {
	return c.Call(ctx, OpGetSAEWMIsForManufacturer, Args{ArgManufacturer: manufacturer})
}

func (c *Client) GetAllMakes(ctx context.Context) (httpclient.Response, error) {
	return c.Call(ctx, OpGetAllMakes, nil)
}

// GetParts lists ORGs with a letter date in the range. Up to 1000 results per page.
func (c *Client) GetParts(ctx context.Context, q PartsQuery) (httpclient.Response, error) {
	return c.Call(ctx, OpGetParts, Args{
		ArgType:     optInt(q.Type),
		ArgFromDate: q.FromDate,
		ArgToDate:   q.ToDate,
		ArgPage:     optInt(q.Page),
	})
}

// GetAllManufacturers returns manufacturers in pages of 100.
func (c *Client) GetAllManufacturers(ctx context.Context, page int) (httpclient.Response, error) {
	return c.Call(ctx, OpGetAllManufacturers, Args{ArgPage: optInt(page)})
}

// GetManufacturerDetails matches manufacturers whose name is LIKE the given (partial) name.
func (c *Client) GetManufacturerDetails(ctx context.Context, manufacturer string) (httpclient.Response, error) {
	return c.Call(ctx, OpGetManufacturerDetails, Args{ArgManufacturer: manufacturer})
}

// GetMakesForManufacturer lists makes for a manufacturer, restricted to a model
// year when year is non-zero.
func (c *Client) GetMakesForManufacturer(ctx context.Context, manufacturer string, year int) (httpclient.Response, error) {
	if year == 0 {
		return c.Call(ctx, OpGetMakesForManufacturer, Args{ArgManufacturer: manufacturer})
	}
	return c.Call(ctx, OpGetMakesForManufacturerAndYear, Args{ArgManufacturer: manufacturer, ArgYear: optInt(year)})
}

// GetMakesForVehicleType defaults vehicleType to "car".
func (c *Client) GetMakesForVehicleType(ctx context.Context, vehicleType string) (httpclient.Response, error) {
	if vehicleType == "" {
		vehicleType = defaultVehicleType
	}
	return c.Call(ctx, OpGetMakesForVehicleType, Args{ArgVehicleType: vehicleType})
}

func (c *Client) GetVehicleTypesForMake(ctx context.Context, makeName string) (httpclient.Response, error) {
	return c.Call(ctx, OpGetVehicleTypesForMake, Args{ArgMake: makeName})
}

func (c *Client) GetVehicleTypesForMakeID(ctx context.Context, makeID int) (httpclient.Response, error) {
	return c.Call(ctx, OpGetVehicleTypesForMakeID, Args{ArgMakeID: optInt(makeID)})
}

// GetEquipmentPlantCodes returns assigned equipment plant codes.
func (c *Client) GetEquipmentPlantCodes(ctx context.Context, q EquipmentPlantQuery) (httpclient.Response, error) {
	return c.Call(ctx, OpGetEquipmentPlantCodes, Args{
		ArgYear:          optInt(q.Year),
		ArgEquipmentType: optInt(q.EquipmentType),
		ArgReportType:    q.ReportType,
	})
}

func (c *Client) GetModelsForMake(ctx context.Context, makeName string) (httpclient.Response, error) {
	return c.Call(ctx, OpGetModelsForMake, Args{ArgMake: makeName})
}

func (c *Client) GetModelsForMakeID(ctx context.Context, makeID int) (httpclient.Response, error) {
	return c.Call(ctx, OpGetModelsForMakeID, Args{ArgMakeID: optInt(makeID)})
}

// GetModelsForMakeIDYear appends /modelyear/{year} and /vehicletype/{type} only
// for non-zero values, in that order.
func (c *Client) GetModelsForMakeIDYear(ctx context.Context, makeID, year int, vehicleType string) (httpclient.Response, error) {
	return c.Call(ctx, OpGetModelsForMakeIDYear, Args{
		ArgMakeID:      optInt(makeID),
		ArgModelYear:   optInt(year),
		ArgVehicleType: vehicleType,
	})
}

func (c *Client) GetVehicleVariableList(ctx context.Context) (httpclient.Response, error) {
	return c.Call(ctx, OpGetVehicleVariableList, nil)
}

// GetVehicleVariableValuesList lists accepted values of a lookup variable;
// variable defaults to "battery".
func (c *Client) GetVehicleVariableValuesList(ctx context.Context, variable string) (httpclient.Response, error) {
	if variable == "" {
		variable = defaultVariable
	}
	return c.Call(ctx, OpGetVehicleVariableValuesList, Args{ArgVariable: variable})
}
