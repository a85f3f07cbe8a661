package core

import "strings"

// FingerprintPolicy decides how a mismatch on a single fingerprint field is
// treated during refresh.
type FingerprintPolicy int

const (
	// PolicyHardFail kills the session on mismatch.
	PolicyHardFail FingerprintPolicy = iota
	// PolicySoftFlag records a security flag but lets the request proceed.
	PolicySoftFlag
	// PolicyIgnore skips the field entirely.
	PolicyIgnore
)

// Security flags appended to sessions by the comparison policy.
const (
	FlagLocationChange = "LOCATION_CHANGE"
	FlagBrowserChange  = "BROWSER_CHANGE"
	FlagTimezoneChange = "TIMEZONE_CHANGE"
	FlagCanvasDrift    = "FINGERPRINT_DRIFT"
)

type fingerprintCheck struct {
	policy  FingerprintPolicy
	flag    string
	extract func(DeviceFingerprint) string
}

// fingerprintChecks is the full comparison policy: one row per field, each
// mapped to hard-fail, soft-flag or ignore. The hardware id is the device
// identity boundary; everything else is advisory.
var fingerprintChecks = []fingerprintCheck{
	{PolicyHardFail, "", func(f DeviceFingerprint) string { return f.HardwareID }},
	{PolicySoftFlag, FlagBrowserChange, func(f DeviceFingerprint) string { return f.BrowserName }},
	{PolicySoftFlag, FlagTimezoneChange, func(f DeviceFingerprint) string { return f.Timezone }},
	{PolicySoftFlag, FlagCanvasDrift, func(f DeviceFingerprint) string { return f.CanvasHash }},
	{PolicySoftFlag, FlagCanvasDrift, func(f DeviceFingerprint) string { return f.WebGLHash }},
	{PolicyIgnore, "", func(f DeviceFingerprint) string { return f.BrowserVersion }},
	{PolicyIgnore, "", func(f DeviceFingerprint) string { return f.ScreenResolution }},
}

// CompareFingerprints evaluates the stored fingerprint against a freshly
// reported one. It returns whether any hard-fail field mismatched and the
// security flags raised by soft-flag fields. Soft fields are only compared
// when both sides reported a value; the hardware id must match exactly.
func CompareFingerprints(stored, reported DeviceFingerprint) (mismatch bool, flags []string) {
	for _, check := range fingerprintChecks {
		prev, next := check.extract(stored), check.extract(reported)
		switch check.policy {
		case PolicyHardFail:
			if !strings.EqualFold(prev, next) {
				mismatch = true
			}
		case PolicySoftFlag:
			if prev != "" && next != "" && prev != next {
				flags = appendUnique(flags, check.flag)
			}
		}
	}
	return mismatch, flags
}

func appendUnique(flags []string, flag string) []string {
	for _, f := range flags {
		if f == flag {
			return flags
		}
	}
	return append(flags, flag)
}
