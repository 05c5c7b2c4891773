// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
)

// statusWriter delivers a Status verbatim into the status block.
// No interpretation: the mirror decides what the status is.
type statusWriter struct {
	plan *StatusPlan
	cli  endpointClient

	needFull bool
	last     Status
	nameRegs []uint16
}

func newStatusWriter(plan Plan, clients map[string]endpointClient) (*statusWriter, bool) {
	if plan.Status == nil {
		return nil, false
	}

	sp := plan.Status
	return &statusWriter{
		plan:     sp,
		cli:      clients[sp.Endpoint],
		needFull: true, // full re-assert on first write
		nameRegs: encodeDeviceNameRegs(sp.DeviceName),
	}, true
}

// WriteStatus writes only the slots that changed since the last successful
// write. After any failure the next call re-asserts the full block.
func (sw *statusWriter) WriteStatus(s Status) error {
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	base := sw.baseAddr()
	unitID := sw.plan.UnitID

	if sw.needFull {
		if err := sw.cli.WriteRegisters(unitID, base, sw.fullBlockRegs(s)); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = s
		return nil
	}

	var errs []error
	slots := []struct {
		slot uint16
		cur  *uint16
		next uint16
	}{
		{SlotHealthCode, &sw.last.Health, s.Health},
		{SlotLastErrorCode, &sw.last.LastErrorCode, s.LastErrorCode},
		{SlotSecondsInError, &sw.last.SecondsInError, s.SecondsInError},
	}
	for _, sl := range slots {
		if *sl.cur == sl.next {
			continue
		}
		if err := sw.cli.WriteRegisters(unitID, base+sl.slot, []uint16{sl.next}); err != nil {
			errs = append(errs, fmt.Errorf("slot %d: %w", sl.slot, err))
			continue
		}
		*sl.cur = sl.next
	}

	if len(errs) > 0 {
		// partial failure: the block is in doubt
		sw.needFull = true
		return fmt.Errorf("status writer: %w", errors.Join(errs...))
	}
	return nil
}

func (sw *statusWriter) baseAddr() uint16 {
	return sw.plan.Slot * SlotsPerDevice
}

func (sw *statusWriter) fullBlockRegs(s Status) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError

	// slots 3..10 reserved, left zero
	copy(regs[SlotDeviceNameStart:SlotDeviceNameStart+SlotDeviceNameSlots], sw.nameRegs)
	return regs
}

// encodeDeviceNameRegs packs up to 16 ASCII characters into 8 registers,
// two bytes per register, big-endian.
func encodeDeviceNameRegs(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}
	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}
	return out
}
