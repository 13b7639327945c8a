package oekoboiler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Oekoboiler property codes.
const (
	PropBoilerOn         = "F104"
	PropAlarm            = "F110"
	PropSetWaterTemp     = "F11"
	PropTemperatureDelta = "F12"
	PropCurrentWaterTemp = "F103"
	PropPVFunction       = "F62"
	PropVersion          = "version"
)

// Value is a datapoint value in textual form. The empty Value means the
// device did not report the property; treat it as unknown, not as zero.
type Value string

// String returns the raw text of the value.
func (v Value) String() string {
	return string(v)
}

// IsEmpty reports whether the property was missing or had no value.
func (v Value) IsEmpty() bool {
	return v == ""
}

// Int returns the value as an integer. ok is false if the value is empty or
// not an integral number.
func (v Value) Int() (n int, ok bool) {
	if i, err := strconv.Atoi(string(v)); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// Float returns the value as a float64.
func (v Value) Float() (f float64, ok bool) {
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Bool interprets "1"/"0" and "true"/"false".
func (v Value) Bool() (b bool, ok bool) {
	b, err := strconv.ParseBool(string(v))
	if err != nil {
		return false, false
	}
	return b, true
}

// valueOf converts a decoded JSON scalar to a Value.
func valueOf(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return Value(v)
	case float64:
		return Value(strconv.FormatFloat(v, 'f', -1, 64))
	case json.Number:
		return Value(v.String())
	case bool:
		return Value(strconv.FormatBool(v))
	case int:
		return Value(strconv.Itoa(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return Value(fmt.Sprint(v))
		}
		return Value(data)
	}
}

// Boiler is the named view of an Oekoboiler's raw properties.
type Boiler struct {
	BoilerOn         Value `json:"boilerOn"`
	CurrentWaterTemp Value `json:"currentWaterTemp"`
	SetWaterTemp     Value `json:"setWaterTemp"`
	TemperatureDelta Value `json:"temperatureDelta"`
	PVFunction       Value `json:"pvFunction"`
	Version          Value `json:"version"`
	Alarm            Value `json:"alarm"`
}

// boilerFields maps each Boiler field to the property code it is read from.
var boilerFields = []struct {
	name  string
	code  string
	field func(*Boiler) *Value
}{
	{"boilerOn", PropBoilerOn, func(b *Boiler) *Value { return &b.BoilerOn }},
	{"alarm", PropAlarm, func(b *Boiler) *Value { return &b.Alarm }},
	{"setWaterTemp", PropSetWaterTemp, func(b *Boiler) *Value { return &b.SetWaterTemp }},
	{"temperatureDelta", PropTemperatureDelta, func(b *Boiler) *Value { return &b.TemperatureDelta }},
	{"currentWaterTemp", PropCurrentWaterTemp, func(b *Boiler) *Value { return &b.CurrentWaterTemp }},
	{"pvFunction", PropPVFunction, func(b *Boiler) *Value { return &b.PVFunction }},
	{"version", PropVersion, func(b *Boiler) *Value { return &b.Version }},
}

// BoilerField is one named field of a Boiler together with its property code.
type BoilerField struct {
	Name  string
	Code  string
	Value Value
}

// Fields returns the boiler's fields in a stable order.
func (b Boiler) Fields() []BoilerField {
	fields := make([]BoilerField, 0, len(boilerFields))
	for _, f := range boilerFields {
		fields = append(fields, BoilerField{Name: f.name, Code: f.code, Value: *f.field(&b)})
	}
	return fields
}

// findProperty returns the first property with the given name.
func findProperty(name string, props []DeviceProperty) (Property, bool) {
	for _, p := range props {
		if p.Property.Name == name {
			return p.Property, true
		}
	}
	return Property{}, false
}

// MapBoiler folds raw device properties into a Boiler. Fields whose property
// is missing are left empty. It never fails.
func MapBoiler(props []DeviceProperty) Boiler {
	var b Boiler
	for _, f := range boilerFields {
		if p, ok := findProperty(f.code, props); ok {
			*f.field(&b) = valueOf(p.Value)
		}
	}
	return b
}

// BoilerKeys maps property codes to the numeric property keys of one device.
type BoilerKeys map[string]int

// Key returns the property key for code, or -1 if the device lacks it.
func (k BoilerKeys) Key(code string) int {
	if key, ok := k[code]; ok {
		return key
	}
	return -1
}

// MapBoilerKeys collects the property keys of every Boiler field found in props.
func MapBoilerKeys(props []DeviceProperty) BoilerKeys {
	keys := make(BoilerKeys, len(boilerFields))
	for _, f := range boilerFields {
		if p, ok := findProperty(f.code, props); ok {
			keys[f.code] = p.Key
		}
	}
	return keys
}

// GetBoiler returns the named view of the Oekoboiler with the given DSN.
func (c *Client) GetBoiler(ctx context.Context, dsn string) (*Boiler, error) {
	props, err := c.GetDeviceProperties(ctx, dsn)
	if err != nil {
		return nil, err
	}
	b := MapBoiler(props)
	return &b, nil
}

// GetBoilerKeys returns the property keys of the Oekoboiler with the given DSN.
func (c *Client) GetBoilerKeys(ctx context.Context, dsn string) (BoilerKeys, error) {
	props, err := c.GetDeviceProperties(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return MapBoilerKeys(props), nil
}

// SetWaterTemperature sets the target water temperature (F11) in degrees Celsius.
func (c *Client) SetWaterTemperature(ctx context.Context, dsn string, celsius int) error {
	return c.setBoilerProperty(ctx, dsn, PropSetWaterTemp, celsius)
}

// SetBoilerPower switches the boiler on or off (F104).
func (c *Client) SetBoilerPower(ctx context.Context, dsn string, on bool) error {
	return c.setBoilerProperty(ctx, dsn, PropBoilerOn, boolToInt(on))
}

// SetPVFunction enables or disables photovoltaic surplus mode (F62).
func (c *Client) SetPVFunction(ctx context.Context, dsn string, on bool) error {
	return c.setBoilerProperty(ctx, dsn, PropPVFunction, boolToInt(on))
}

func (c *Client) setBoilerProperty(ctx context.Context, dsn, code string, value any) error {
	keys, err := c.GetBoilerKeys(ctx, dsn)
	if err != nil {
		return err
	}
	key := keys.Key(code)
	if key < 0 {
		return fmt.Errorf("%w: %s on %s", ErrPropertyNotFound, code, dsn)
	}
	return c.UpdateProperty(ctx, key, value)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
