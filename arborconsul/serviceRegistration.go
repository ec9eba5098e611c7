package arborconsul

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/hashicorp/consul/api"

	"github.com/arborrpc/arbor"
)

// ServiceID is the type alias for a service's unique identifier
// within an Agent instance.
type ServiceID string

// CheckID is the type alias for a service check's unique identifier.
type CheckID string

// ServiceRegistration holds registration information for a single service.
type ServiceRegistration struct {
	ID                string                        `json:"id" yaml:"id"`
	Name              string                        `json:"name" yaml:"name"`
	Tags              []string                      `json:"tags" yaml:"tags"`
	Port              int                           `json:"port" yaml:"port"`
	Address           string                        `json:"address" yaml:"address"`
	SocketPath        string                        `json:"socketPath" yaml:"socketPath"`
	TaggedAddresses   map[string]api.ServiceAddress `json:"taggedAddresses" yaml:"taggedAddresses"`
	EnableTagOverride bool                          `json:"enableTagOverride" yaml:"enableTagOverride"`
	Meta              map[string]string             `json:"meta" yaml:"meta"`
	Checks            []api.AgentServiceCheck       `json:"checks" yaml:"checks"`

	Namespace string        `json:"namespace" yaml"namespace"`
	Partition string        `json:"partition" yaml:"partition"`
	Locality  *api.Locality `json:"locality" yaml:"locality"`

	RegisterOptions   api.ServiceRegisterOpts `json:"registerOptions" yaml:"registerOptions"`
	DeregisterOptions api.QueryOptions        `json:"deregisterOptions" yaml:"deregisterOptions"`
}

func (sr ServiceRegistration) serviceID() ServiceID {
	if len(sr.ID) > 0 {
		return ServiceID(sr.ID)
	}

	return ServiceID(sr.Name)
}

func (sr ServiceRegistration) asAgentServiceRegistration() (asr *api.AgentServiceRegistration) {
	asr = &api.AgentServiceRegistration{
		ID:                sr.ID,
		Name:              sr.Name,
		Tags:              sr.Tags,
		Port:              sr.Port,
		Address:           sr.Address,
		SocketPath:        sr.SocketPath,
		TaggedAddresses:   sr.TaggedAddresses,
		Meta:              sr.Meta,
		EnableTagOverride: sr.EnableTagOverride,
		Namespace:         sr.Namespace,
		Partition:         sr.Partition,
		Locality:          sr.Locality,
	}

	if len(sr.Checks) > 0 {
		asr.Checks = make(api.AgentServiceChecks, len(sr.Checks))
		for i := 0; i < len(asr.Checks); i++ {
			asr.Checks[i] = new(api.AgentServiceCheck)
			*asr.Checks[i] = sr.Checks[i]
		}
	}

	return
}

// validate checks that sr has an identifier and that any embedded checks
// missing an id are assigned a predictable, unique one. This runs per
// registration since arbor registers one key at a time rather than a fixed
// bundle known at startup.
func (sr *ServiceRegistration) validate() error {
	if len(sr.Name) == 0 && len(sr.ID) == 0 {
		return errors.New("a service registration requires a name or id")
	}

	serviceID := sr.serviceID()
	var err error
	for i := range sr.Checks {
		if len(sr.Checks[i].CheckID) == 0 {
			sr.Checks[i].CheckID = fmt.Sprintf("%s:check-%d", serviceID, i)
		}
	}

	return err
}

// registrationFromKey translates an arbor registration key into the consul
// service registration that represents it. The key's canonical Key() string
// becomes the service ID (so re-registering the same key is idempotent from
// consul's point of view), the URL's path becomes the service name, and the
// URL's host:port becomes the service address. A "ttl" parameter, if
// present, adds a single TTL health check.
func registrationFromKey(key arbor.URLKey) (ServiceRegistration, error) {
	url := key.URL()

	name := strings.TrimPrefix(url.Path, "/")
	if len(name) == 0 {
		name = url.Host
	}

	sr := ServiceRegistration{
		ID:   key.Key(),
		Name: name,
		Meta: url.Params,
	}

	if host, port, err := net.SplitHostPort(url.Host); err == nil {
		sr.Address = host
		if n, err := strconv.Atoi(port); err == nil {
			sr.Port = n
		}
	} else {
		sr.Address = url.Host
	}

	if tags := url.Param("tags"); len(tags) > 0 {
		sr.Tags = strings.Split(tags, ",")
	}

	if ttl := url.Param("ttl"); len(ttl) > 0 {
		sr.Checks = []api.AgentServiceCheck{{TTL: ttl}}
	}

	if err := sr.validate(); err != nil {
		return ServiceRegistration{}, err
	}

	return sr, nil
}
