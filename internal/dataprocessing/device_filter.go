package dataprocessing

import (
	"strings"

	"github.com/samber/lo"

	"scanadherence/internal/config"
	"scanadherence/pkg/contracts/domain"
)

// DeriveDeviceID returns the part of uid before the first separator.
// Without a separator the whole-string policy uses uid itself while the
// strict policy reports ok=false.
func DeriveDeviceID(uid, policy string) (deviceID string, ok bool) {
	prefix, _, found := strings.Cut(uid, config.DeviceIDSeparator)
	if !found && policy == config.DeviceIDPolicyStrict {
		return "", false
	}
	return prefix, true
}

// DeviceFilter drops scans taken on devices with too few scans in a group
type DeviceFilter struct {
	minScans int
}

// NewDeviceFilter keeps devices with strictly more than minScans scans
func NewDeviceFilter(minScans int) *DeviceFilter {
	return &DeviceFilter{minScans: minScans}
}

// Apply returns the group restricted to qualifying devices, preserving row
// order, and the number of rows dropped. The result may be empty.
func (f *DeviceFilter) Apply(group domain.PatientEyeGroup) (domain.PatientEyeGroup, int) {
	byDevice := lo.GroupBy(group.Records, func(r domain.ScanRecord) string {
		return r.DeviceID
	})

	kept := lo.Filter(group.Records, func(r domain.ScanRecord, _ int) bool {
		return len(byDevice[r.DeviceID]) > f.minScans
	})

	return domain.PatientEyeGroup{Key: group.Key, Records: kept}, group.Len() - len(kept)
}
