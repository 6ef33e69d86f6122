package graphclient

import (
	"context"
	"sync"
)

// ProbeResult is the outcome of one capability probe.
type ProbeResult struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CapabilityReport summarizes a tenant's Graph connectivity and permission
// surface (spec §4.A "Capability probe"): at least 2 of the 4 independent
// probes succeeding counts as an overall-healthy tenant.
type CapabilityReport struct {
	Probes  []ProbeResult `json:"probes"`
	Healthy bool          `json:"healthy"`
}

const minHealthyProbes = 2

// ProbeCapabilities runs the four independent read probes concurrently and
// classifies overall health without letting one slow/failing probe block
// the others.
func ProbeCapabilities(ctx context.Context, c *Client) CapabilityReport {
	type probe struct {
		name string
		run  func(context.Context) error
	}
	probes := []probe{
		{"organization", func(ctx context.Context) error {
			_, err := c.GetOrganization(ctx)
			return err
		}},
		{"users", func(ctx context.Context) error {
			_, err := c.ListUsers(ctx, "id,displayName,userPrincipalName", 1)
			return err
		}},
		{"directoryRoles", func(ctx context.Context) error {
			_, err := c.ListDirectoryRoles(ctx)
			return err
		}},
		{"conditionalAccessPolicies", func(ctx context.Context) error {
			_, err := c.ListConditionalAccessPolicies(ctx)
			return err
		}},
	}

	results := make([]ProbeResult, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p probe) {
			defer wg.Done()
			err := p.run(ctx)
			res := ProbeResult{Name: p.name, Success: err == nil}
			if err != nil {
				res.Error = err.Error()
			}
			results[i] = res
		}(i, p)
	}
	wg.Wait()

	healthyCount := 0
	for _, r := range results {
		if r.Success {
			healthyCount++
		}
	}

	return CapabilityReport{
		Probes:  results,
		Healthy: healthyCount >= minHealthyProbes,
	}
}
