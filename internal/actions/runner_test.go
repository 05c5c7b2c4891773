// internal/actions/runner_test.go
package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-sensorlink/internal/config"
	"github.com/tamzrod/modbus-sensorlink/internal/session"
)

type write struct{ reg, val uint16 }

type fakeSession struct {
	writes []write
	failAt map[uint16]error
	closed int
}

func (f *fakeSession) ReadRegisters(context.Context, uint16, uint16) ([]uint16, error) {
	return nil, errors.New("not used")
}

func (f *fakeSession) WriteSingleRegister(_ context.Context, reg, val uint16) error {
	f.writes = append(f.writes, write{reg, val})
	return f.failAt[reg]
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

type fakeOpener struct {
	session *fakeSession
	err     error
	opened  []string
}

func (o *fakeOpener) Open(_ context.Context, transport string, address uint8) (session.Session, error) {
	o.opened = append(o.opened, transport)
	if o.err != nil {
		return nil, o.err
	}
	return o.session, nil
}

func u16(v uint16) *uint16 { return &v }

// enabledPlan uses the default registers with site-specific values.
func enabledPlan() Plan {
	c := &config.Config{}
	c.Actions.Enabled = true
	c.Actions.UnlockValue = u16(1234)
	c.Actions.Nullpunkt.Value = u16(300)
	c.Actions.Messgas.Value = u16(8000)
	config.Normalize(c)
	return PlanFrom(c)
}

func newRunner(o *fakeOpener) *Runner {
	return NewRunner(o, enabledPlan(), zerolog.Nop())
}

func TestPlanFrom_Defaults(t *testing.T) {
	c := &config.Config{}
	config.Normalize(c)
	p := PlanFrom(c)

	assert.False(t, p.Enabled)
	assert.Equal(t, Write{Register: 49}, p.Unlock)
	assert.Equal(t, Write{Register: 10}, p.Nullpunkt)
	assert.Equal(t, Write{Register: 12}, p.Messgas)
	assert.Equal(t, uint16(99), p.WorkingModeRegister)
	assert.Equal(t, uint16(50), p.ModbusAddressRegister)
}

func TestActions_DisabledDoesNoIO(t *testing.T) {
	c := &config.Config{}
	config.Normalize(c)
	s := &fakeSession{}
	o := &fakeOpener{session: s}
	r := NewRunner(o, PlanFrom(c), zerolog.Nop())

	for _, err := range []error{
		r.Nullpunkt(context.Background(), "COM3", 247),
		r.Messgas(context.Background(), "COM3", 247),
		r.SetWorkingMode(context.Background(), "COM3", 247, 3),
		r.SetModbusAddress(context.Background(), "COM3", 247, 12),
	} {
		assert.ErrorIs(t, err, ErrDisabled)
	}
	assert.Empty(t, o.opened)
	assert.Empty(t, s.writes)
}

func TestActions_UnlockThenWrite(t *testing.T) {
	cases := []struct {
		name string
		run  func(r *Runner) error
		want write
	}{
		{"nullpunkt", func(r *Runner) error { return r.Nullpunkt(context.Background(), "COM3", 247) }, write{10, 300}},
		{"messgas", func(r *Runner) error { return r.Messgas(context.Background(), "COM3", 247) }, write{12, 8000}},
		{"working mode", func(r *Runner) error { return r.SetWorkingMode(context.Background(), "COM3", 247, 3) }, write{99, 3}},
		{"modbus address", func(r *Runner) error { return r.SetModbusAddress(context.Background(), "COM3", 247, 12) }, write{50, 12}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &fakeSession{}
			o := &fakeOpener{session: s}

			require.NoError(t, tc.run(newRunner(o)))

			assert.Equal(t, []write{{49, 1234}, tc.want}, s.writes)
			assert.Equal(t, []string{"COM3"}, o.opened)
			assert.Equal(t, 1, s.closed)
		})
	}
}

func TestActions_UnlockFailureIsIgnored(t *testing.T) {
	s := &fakeSession{failAt: map[uint16]error{49: errors.New("illegal data address")}}
	o := &fakeOpener{session: s}

	err := newRunner(o).SetModbusAddress(context.Background(), "COM3", 247, 12)

	require.NoError(t, err)
	assert.Equal(t, []write{{49, 1234}, {50, 12}}, s.writes)
}

func TestActions_WriteFailureIsReturned(t *testing.T) {
	cause := errors.New("no response")
	s := &fakeSession{failAt: map[uint16]error{50: cause}}
	o := &fakeOpener{session: s}

	err := newRunner(o).SetModbusAddress(context.Background(), "COM3", 247, 12)

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), TagModbusAddress)
	assert.Equal(t, 1, s.closed, "session closed on failure too")
}

func TestActions_OpenFailure(t *testing.T) {
	o := &fakeOpener{err: &session.Error{Op: "open", Transport: "COM9", Kind: session.ErrTransportUnavailable}}

	err := newRunner(o).Nullpunkt(context.Background(), "COM9", 1)

	assert.ErrorIs(t, err, session.ErrTransportUnavailable)
}

func TestSetModbusAddress_InvalidTargetDoesNoIO(t *testing.T) {
	for _, addr := range []uint8{0, 248, 255} {
		s := &fakeSession{}
		o := &fakeOpener{session: s}

		err := newRunner(o).SetModbusAddress(context.Background(), "COM3", 247, addr)

		assert.ErrorIs(t, err, ErrInvalidAddress, "address %d", addr)
		assert.Empty(t, o.opened)
		assert.Empty(t, s.writes)
	}
}
