// internal/writer/builder.go
package writer

import (
	cfg "github.com/tamzrod/modbus-sensorlink/internal/config"
	wmodbus "github.com/tamzrod/modbus-sensorlink/internal/writer/modbus"
)

// BuildPlan converts the mirror config into a Plan.
// Assumes config has already passed validation.
func BuildPlan(m cfg.MirrorConfig) Plan {
	var plan Plan

	for _, t := range m.Targets {
		plan.Targets = append(plan.Targets, Target{
			Endpoint: t.Endpoint,
			UnitID:   t.UnitID,
			Offset:   t.Offset,
		})
	}

	if s := m.Status; s != nil {
		plan.Status = &StatusPlan{
			Endpoint:   s.Endpoint,
			UnitID:     s.UnitID,
			Slot:       s.Slot,
			DeviceName: s.DeviceName,
		}
	}
	return plan
}

// BuildEndpointClients creates one TCP client per unique endpoint.
func BuildEndpointClients(plan Plan, m cfg.MirrorConfig) (map[string]endpointClient, func() error, error) {
	unique := map[string]struct{}{}
	for _, t := range plan.Targets {
		unique[t.Endpoint] = struct{}{}
	}
	if plan.Status != nil {
		unique[plan.Status.Endpoint] = struct{}{}
	}

	clients := make(map[string]endpointClient)
	var closers []func() error

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	for endpoint := range unique {
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: endpoint,
			Timeout:  m.Timeout(),
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		clients[endpoint] = c
		closers = append(closers, c.Close)
	}

	return clients, closeAll, nil
}
