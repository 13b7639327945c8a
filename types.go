package oekoboiler

// Device is one entry of the device list. The Ayla API wraps every record
// in a "device" envelope.
type Device struct {
	Device DeviceInfo `json:"device"`
}

// DSN returns the device serial number.
func (d Device) DSN() string {
	return d.Device.DSN
}

// Connection status values reported for a device.
const (
	ConnectionOnline  = "Online"
	ConnectionOffline = "Offline"
)

// DeviceInfo identifies a device registered to the account.
type DeviceInfo struct {
	ProductName      string `json:"product_name"`
	Model            string `json:"model"`
	DSN              string `json:"dsn"`
	OEMModel         string `json:"oem_model"`
	SWVersion        string `json:"sw_version"`
	TemplateID       int    `json:"template_id"`
	MAC              string `json:"mac"`
	HWSig            string `json:"hwsig,omitempty"`
	LanIP            string `json:"lan_ip"`
	ConnectedAt      string `json:"connected_at"`
	Key              int    `json:"key"`
	LanEnabled       bool   `json:"lan_enabled"`
	HasProperties    bool   `json:"has_properties"`
	ConnectionStatus string `json:"connection_status"`
	Lat              string `json:"lat"`
	Lng              string `json:"lng"`
	Locality         string `json:"locality,omitempty"`
	DeviceType       string `json:"device_type"`
}

// Online reports whether the platform considers the device connected.
func (d DeviceInfo) Online() bool {
	return d.ConnectionStatus == ConnectionOnline
}

// DeviceProperty is one entry of a device's property list, wrapped in a
// "property" envelope.
type DeviceProperty struct {
	Property Property `json:"property"`
}

// Property base types.
const (
	BaseTypeInteger = "integer"
	BaseTypeBoolean = "boolean"
	BaseTypeString  = "string"
	BaseTypeDecimal = "decimal"
)

// Property directions. Input properties are writable from the cloud.
const (
	DirectionInput  = "input"
	DirectionOutput = "output"
)

// Property is a single datapoint-bearing property of a device.
// Value is whatever JSON scalar the platform reports and may be nil.
type Property struct {
	Name             string `json:"name"`
	BaseType         string `json:"base_type"`
	ReadOnly         bool   `json:"read_only"`
	Direction        string `json:"direction"`
	DataUpdatedAt    string `json:"data_updated_at"`
	Key              int    `json:"key"`
	DeviceKey        int    `json:"device_key"`
	ProductName      string `json:"product_name"`
	TrackOnlyChanges bool   `json:"track_only_changes"`
	DisplayName      string `json:"display_name"`
	HostSWVersion    bool   `json:"host_sw_version"`
	TimeSeries       bool   `json:"time_series"`
	Derived          bool   `json:"derived"`
	Value            any    `json:"value"`
	RetentionDays    int    `json:"retention_days"`
}

// Datapoint is the payload accepted and returned by the datapoint endpoint.
type Datapoint struct {
	Value     any    `json:"value"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type datapointEnvelope struct {
	Datapoint Datapoint `json:"datapoint"`
}
