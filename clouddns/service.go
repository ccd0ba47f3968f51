// Package clouddns is a client SDK for a managed DNS service. It manages
// zones and their resource record sets through atomic change transactions:
// callers describe the records they want added or removed, the package
// computes the minimal change, advances the zone's SOA serial, and submits
// everything as one request.
//
// Every operation is synchronous and blocking; retries and backoff sleeps
// happen on the calling goroutine under an explicit retry.Policy.
package clouddns

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/yk-dns-client/retry"
)

// Options configures a Service.
type Options struct {
	// Endpoint is the base URL of the DNS API, e.g.
	// "https://dns.example.com/dns/v1". Required.
	Endpoint string
	// Project is the project identifier owning the managed zones. Required.
	Project string
	// Token is the bearer token sent with every request; empty disables the
	// Authorization header (useful against local test servers).
	Token string
	// Retry overrides the per-call retry policy. Nil selects
	// retry.DefaultPolicy with the package's transient-failure classifier.
	Retry *retry.Policy
	// HTTPClient overrides the underlying HTTP client.
	HTTPClient *http.Client
}

// Service is the entry point to the DNS API for one project.
type Service struct {
	transport *transport
	policy    retry.Policy
	log       logr.Logger
}

// NewService validates opts and returns a client for the project's managed
// zones.
func NewService(log logr.Logger, opts Options) (*Service, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("clouddns: missing required option Endpoint")
	}
	if opts.Project == "" {
		return nil, fmt.Errorf("clouddns: missing required option Project")
	}

	policy := retry.DefaultPolicy()
	if opts.Retry != nil {
		policy = *opts.Retry
	}
	if policy.Retryable == nil {
		policy.Retryable = IsRetryable
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	base := strings.TrimRight(opts.Endpoint, "/") + "/projects/" + opts.Project
	return &Service{
		transport: &transport{base: base, token: opts.Token, client: client, log: log},
		policy:    policy,
		log:       log,
	}, nil
}

// RetryPolicy returns the policy applied to this service's remote calls.
func (s *Service) RetryPolicy() retry.Policy {
	return s.policy
}

func (s *Service) zoneFromWire(w zoneWire) *Zone {
	return &Zone{
		Name:        w.Name,
		DNS:         w.DNSName,
		ID:          w.ID,
		Description: w.Description,
		NameServers: w.NameServers,
		Created:     parseTime(w.CreationTime),
		svc:         s,
	}
}

// Zones lists the project's managed zones one page at a time. maxResults
// caps the page size when positive.
func (s *Service) Zones(ctx context.Context, maxResults int) (*List[*Zone], error) {
	fetch := func(ctx context.Context, pageToken string) ([]*Zone, string, error) {
		q := url.Values{}
		if maxResults > 0 {
			q.Set("maxResults", strconv.Itoa(maxResults))
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		var page zonesPage
		err := retry.Do(ctx, s.policy, func() error {
			return s.transport.do(ctx, http.MethodGet, "managedZones", q, nil, &page)
		})
		if err != nil {
			return nil, "", err
		}
		zones := make([]*Zone, len(page.ManagedZones))
		for i, w := range page.ManagedZones {
			zones[i] = s.zoneFromWire(w)
		}
		return zones, page.NextPageToken, nil
	}
	return newList(ctx, fetch, "")
}

// Zone fetches a single managed zone by name. A missing zone yields
// (nil, nil) so callers can branch on absence without error inspection.
func (s *Service) Zone(ctx context.Context, name string) (*Zone, error) {
	var w zoneWire
	err := retry.Do(ctx, s.policy, func() error {
		return s.transport.do(ctx, http.MethodGet, "managedZones/"+name, nil, nil, &w)
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return s.zoneFromWire(w), nil
}

// CreateZone creates a managed zone. dnsName is the zone apex and must be
// fully qualified (trailing dot).
func (s *Service) CreateZone(ctx context.Context, name, dnsName, description string) (*Zone, error) {
	if !strings.HasSuffix(dnsName, ".") {
		return nil, fmt.Errorf("clouddns: zone dns name %q must be fully qualified (trailing dot)", dnsName)
	}
	body := zoneWire{Name: name, DNSName: dnsName, Description: description}
	var w zoneWire
	err := retry.Do(ctx, s.policy, func() error {
		return s.transport.do(ctx, http.MethodPost, "managedZones", nil, body, &w)
	})
	if err != nil {
		return nil, err
	}
	z := s.zoneFromWire(w)
	s.log.Info("zone created", "zone", z.Name, "dns", z.DNS)
	return z, nil
}

// DeleteZone deletes a managed zone. The backend refuses to delete a
// non-empty zone; with force, the zone's non-essential records (everything
// except the apex SOA and NS sets) are removed first.
func (s *Service) DeleteZone(ctx context.Context, name string, force bool) error {
	if force {
		z, err := s.Zone(ctx, name)
		if err != nil {
			return err
		}
		if z != nil {
			if _, err := z.Clear(ctx); err != nil {
				return err
			}
		}
	}
	err := retry.Do(ctx, s.policy, func() error {
		return s.transport.do(ctx, http.MethodDelete, "managedZones/"+name, nil, nil, nil)
	})
	if err != nil {
		return err
	}
	s.log.Info("zone deleted", "zone", name)
	return nil
}
