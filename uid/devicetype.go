package uid

import "fmt"

// DeviceType is a 64-bit code: the high 32 bits are a company id, the low 32
// bits are a device id within that company. Not every code is meaningful —
// only the ones in catalog resolve to a Kind via From.
type DeviceType uint64

// Company returns the high 32 bits of the code.
func (d DeviceType) Company() uint32 {
	return uint32(d >> 32)
}

// Device returns the low 32 bits of the code.
func (d DeviceType) Device() uint32 {
	return uint32(d)
}

// DeviceKind names an entry in the closed device-type catalog. The set of
// kinds is open to extension but fixed per release, per the catalog below.
type DeviceKind int

const (
	D7AMote DeviceKind = iota
	D7AFileSystem
	GatewayHost
	GatewaySecondaryModem
	WBeacon
	Wisense2
	Wisp
	WispLight
	Wult
	WoltUWBTag
	WoltUWBAnchor
	WoltMeter
	UguardController
	UguardPeripheral
	UguardTag
	UguardSpot
	MotionConnect
	AirConnect
	BLEBeaconEddystone
	BLEBeaconIBeacon
	AiforsiteAnchor
	LucyTrot

	// Non-WizziLab companies.
	WFITag
	OS200
	OS300
	OS110
)

func (k DeviceKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("DeviceKind(%d)", int(k))
}

var kindNames = map[DeviceKind]string{
	D7AMote:               "D7AMote",
	D7AFileSystem:         "D7AFileSystem",
	GatewayHost:           "GatewayHost",
	GatewaySecondaryModem: "GatewaySecondaryModem",
	WBeacon:               "WBeacon",
	Wisense2:              "Wisense2",
	Wisp:                  "Wisp",
	WispLight:             "WispLight",
	Wult:                  "Wult",
	WoltUWBTag:            "WoltUWBTag",
	WoltUWBAnchor:         "WoltUWBAnchor",
	WoltMeter:             "WoltMeter",
	UguardController:      "UguardController",
	UguardPeripheral:      "UguardPeripheral",
	UguardTag:             "UguardTag",
	UguardSpot:            "UguardSpot",
	MotionConnect:         "MotionConnect",
	AirConnect:            "AirConnect",
	BLEBeaconEddystone:    "BLEBeaconEddystone",
	BLEBeaconIBeacon:      "BLEBeaconIBeacon",
	AiforsiteAnchor:       "AiforsiteAnchor",
	LucyTrot:              "LucyTrot",
	WFITag:                "WFITag",
	OS200:                 "OS200",
	OS300:                 "OS300",
	OS110:                 "OS110",
}

// WizziLabCompany is the company id shared by all WizziLab-made device
// kinds in the catalog below.
const WizziLabCompany uint32 = 0x01BC50C7

type catalogEntry struct {
	company uint32
	device  uint32
	kind    DeviceKind
}

// catalog is the data-driven company x device -> kind mapping, carried over
// from the applink-xml DeviceType enum of the original implementation.
var catalog = []catalogEntry{
	{WizziLabCompany, 0x00001001, D7AMote},
	{WizziLabCompany, 0x00001000, D7AFileSystem},
	{WizziLabCompany, 0x10000000, GatewayHost},
	{WizziLabCompany, 0x10000001, GatewaySecondaryModem},
	{WizziLabCompany, 0x0000003A, WBeacon},
	{WizziLabCompany, 0xFF000000, Wisense2},
	{WizziLabCompany, 0xFF000009, Wisp},
	{WizziLabCompany, 0xFF000023, WispLight},
	{WizziLabCompany, 0x00000032, Wult},
	{WizziLabCompany, 0xFF00001C, WoltUWBTag},
	{WizziLabCompany, 0xFF00001D, WoltUWBAnchor},
	{WizziLabCompany, 0xFF000022, WoltMeter},
	{WizziLabCompany, 0xFF00001F, UguardController},
	{WizziLabCompany, 0xFF000020, UguardPeripheral},
	{WizziLabCompany, 0xFF000026, UguardTag},
	{WizziLabCompany, 0xFF000028, UguardSpot},
	{WizziLabCompany, 0xFF00002A, MotionConnect},
	{WizziLabCompany, 0xFF00002B, AirConnect},
	{WizziLabCompany, 0xFF00002D, BLEBeaconEddystone},
	{WizziLabCompany, 0xFF00002E, BLEBeaconIBeacon},
	{WizziLabCompany, 0xFF000017, AiforsiteAnchor},
	{WizziLabCompany, 0xFF007307, LucyTrot},

	{0x5A751604, 0x77F10000, WFITag},
	{0x0A3EF31F, 0x00000200, OS200},
	{0x0A3EF31F, 0x00000300, OS300},
	{0x0A3EF31F, 0x00000400, OS110},
}

// appTable maps a kind to its app label, used by the boot-assert decoder to
// locate symbol files. Consulted by kind, never by numeric device-type
// value, per the catalog design: a device-type value only gets you a kind,
// and only a kind gets you an app label.
var appTable = map[DeviceKind]string{
	D7AMote:            "wm",
	D7AFileSystem:      "wm",
	GatewaySecondaryModem: "gw",
	Wult:               "wult",
	WoltUWBTag:         "wolt_uwb_tag",
	WoltUWBAnchor:      "wolt_uwb_anchor",
	WoltMeter:          "wolt_uwb_tag", // no dedicated app yet
	UguardController:   "uguard_controller",
	UguardPeripheral:   "uguard_peripheral",
	UguardTag:          "uguard_tag",
	UguardSpot:         "uguard_spot",
	AirConnect:         "air_connect",
	MotionConnect:      "motion_connect",
	WBeacon:            "wbeacon",
	Wisense2:           "ws",
	Wisp:               "wisp",
	WispLight:          "wisp_light",
	WFITag:             "wfi_tag",
	AiforsiteAnchor:    "aiforsite_anchor",
	OS200:              "os200",
	OS300:              "os300",
	OS110:              "os110",
	LucyTrot:           "lucy_trot",
	// BLEBeaconIBeacon, BLEBeaconEddystone, GatewayHost have no app.
}

// UnknownCompanyError reports a device-type code whose company id has no
// entries in the catalog.
type UnknownCompanyError struct {
	Company uint32
}

func (e UnknownCompanyError) Error() string {
	return fmt.Sprintf("unknown company id %#08x", e.Company)
}

// UnknownDeviceError reports a device-type code whose company is known but
// whose device id within that company is not.
type UnknownDeviceError struct {
	Company uint32
	Device  uint32
}

func (e UnknownDeviceError) Error() string {
	return fmt.Sprintf("unknown device id %#08x for company %#08x", e.Device, e.Company)
}

// From resolves a 64-bit device-type code to its catalog kind.
func From(code uint64) (DeviceKind, error) {
	dt := DeviceType(code)
	company := dt.Company()
	device := dt.Device()

	companyKnown := false
	for _, entry := range catalog {
		if entry.company != company {
			continue
		}
		companyKnown = true
		if entry.device == device {
			return entry.kind, nil
		}
	}
	if !companyKnown {
		return 0, UnknownCompanyError{Company: company}
	}
	return 0, UnknownDeviceError{Company: company, Device: device}
}

// App returns the app label for kind, if any is registered in the catalog.
func App(kind DeviceKind) (string, bool) {
	app, ok := appTable[kind]
	return app, ok
}
