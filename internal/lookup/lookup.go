// Package lookup enriches socio registrations with identity data fetched
// from external DNI providers. Sources are tried in order; later sources
// only fill fields the earlier ones left empty.
package lookup

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lvaldez/padron/internal/app"
	apperrors "github.com/lvaldez/padron/pkg/errors"
	"github.com/lvaldez/padron/pkg/logger"
)

// Person holds the identity fields a DNI source can return.
type Person struct {
	DNI             string `json:"dni"`
	Nombres         string `json:"nombres"`
	ApellidoPaterno string `json:"apellido_paterno"`
	ApellidoMaterno string `json:"apellido_materno"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
	Direccion       string `json:"direccion,omitempty"`
	Region          string `json:"region,omitempty"`
	Provincia       string `json:"provincia,omitempty"`
	Distrito        string `json:"distrito,omitempty"`
}

// Complete reports whether every core identity field is populated.
func (p *Person) Complete() bool {
	return p.Nombres != "" && p.ApellidoPaterno != "" && p.ApellidoMaterno != "" && p.FechaNacimiento != ""
}

// merge copies fields from src that are still empty on p.
func (p *Person) merge(src *Person) {
	if p.Nombres == "" {
		p.Nombres = src.Nombres
	}
	if p.ApellidoPaterno == "" {
		p.ApellidoPaterno = src.ApellidoPaterno
	}
	if p.ApellidoMaterno == "" {
		p.ApellidoMaterno = src.ApellidoMaterno
	}
	if p.FechaNacimiento == "" {
		p.FechaNacimiento = src.FechaNacimiento
	}
	if p.Direccion == "" {
		p.Direccion = src.Direccion
	}
	if p.Region == "" {
		p.Region = src.Region
	}
	if p.Provincia == "" {
		p.Provincia = src.Provincia
	}
	if p.Distrito == "" {
		p.Distrito = src.Distrito
	}
}

// Source fetches identity data for a DNI from one upstream provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context, dni string) (*Person, error)
}

// Client queries the configured sources in order until the core fields
// are complete. A source failure moves on to the next source.
type Client struct {
	sources []Source
	log     *zap.Logger
}

// NewClient builds the lookup client from configuration. Sources without
// a token are skipped entirely.
func NewClient(cfg app.LookupConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	var sources []Source
	if cfg.ConsultasPeru.Token != "" {
		sources = append(sources, newConsultasPeruSource(cfg.ConsultasPeru, httpClient))
	}
	if cfg.MiAPICloud.Token != "" {
		sources = append(sources, newMiAPICloudSource(cfg.MiAPICloud, httpClient))
	}
	if cfg.ConsultaDatos.Token != "" {
		sources = append(sources, newConsultaDatosSource(cfg.ConsultaDatos, httpClient))
	}

	return &Client{
		sources: sources,
		log:     logger.WithModule("lookup"),
	}
}

// NewClientWithSources builds a client over explicit sources. Used by tests.
func NewClientWithSources(sources ...Source) *Client {
	return &Client{sources: sources, log: logger.WithModule("lookup")}
}

// Lookup resolves identity data for the given 8 digit DNI.
func (c *Client) Lookup(ctx context.Context, dni string) (*Person, error) {
	dni = strings.TrimSpace(dni)
	if len(dni) != 8 {
		return nil, apperrors.NewValidation("dni must be exactly 8 digits")
	}
	for _, r := range dni {
		if r < '0' || r > '9' {
			return nil, apperrors.NewValidation("dni must be exactly 8 digits")
		}
	}

	result := &Person{DNI: dni}
	found := false

	for _, source := range c.sources {
		if found && result.Complete() {
			break
		}

		person, err := source.Fetch(ctx, dni)
		if err != nil {
			c.log.Warn("source failed",
				zap.String("source", source.Name()), zap.String("dni", dni), zap.Error(err))
			continue
		}
		if person == nil {
			continue
		}

		result.merge(person)
		found = true
	}

	if !found {
		if len(c.sources) == 0 {
			return nil, apperrors.ErrUpstreamFailure.WithMessage("no lookup sources configured")
		}
		return nil, apperrors.ErrUpstreamFailure.WithMessage("all lookup sources failed for the document")
	}
	return result, nil
}
