package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lvaldez/padron/internal/app"
)

// consultasPeruSource queries api.consultasperu.com with a POST body
// carrying the API token.
type consultasPeruSource struct {
	cfg    app.LookupSourceConfig
	client *http.Client
}

func newConsultasPeruSource(cfg app.LookupSourceConfig, client *http.Client) *consultasPeruSource {
	return &consultasPeruSource{cfg: cfg, client: client}
}

func (s *consultasPeruSource) Name() string { return "consultas_peru" }

func (s *consultasPeruSource) Fetch(ctx context.Context, dni string) (*Person, error) {
	body, err := json.Marshal(map[string]string{
		"token":           s.cfg.Token,
		"type_document":   "dni",
		"document_number": dni,
	})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSuffix(s.cfg.BaseURL, "/") + "/api/v1/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var payload struct {
		Success bool `json:"success"`
		Data    struct {
			Name        string `json:"name"`
			Surname     string `json:"surname"`
			DateOfBirth string `json:"date_of_birth"`
			Address     string `json:"address"`
			Department  string `json:"department"`
			Province    string `json:"province"`
			District    string `json:"district"`
		} `json:"data"`
	}
	if err := doJSON(s.client, req, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, nil
	}

	// The surname field carries both apellidos separated by a space.
	paterno, materno := splitSurname(payload.Data.Surname)
	return &Person{
		DNI:             dni,
		Nombres:         payload.Data.Name,
		ApellidoPaterno: paterno,
		ApellidoMaterno: materno,
		FechaNacimiento: payload.Data.DateOfBirth,
		Direccion:       payload.Data.Address,
		Region:          payload.Data.Department,
		Provincia:       payload.Data.Province,
		Distrito:        payload.Data.District,
	}, nil
}

// miAPICloudSource queries miapi.cloud with a Bearer token.
type miAPICloudSource struct {
	cfg    app.LookupSourceConfig
	client *http.Client
}

func newMiAPICloudSource(cfg app.LookupSourceConfig, client *http.Client) *miAPICloudSource {
	return &miAPICloudSource{cfg: cfg, client: client}
}

func (s *miAPICloudSource) Name() string { return "miapi_cloud" }

func (s *miAPICloudSource) Fetch(ctx context.Context, dni string) (*Person, error) {
	endpoint := fmt.Sprintf("%s/v1/dni/%s", strings.TrimSuffix(s.cfg.BaseURL, "/"), dni)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)

	var payload struct {
		Success bool `json:"success"`
		Datos   struct {
			Nombres     string `json:"nombres"`
			ApePaterno  string `json:"ape_paterno"`
			ApeMaterno  string `json:"ape_materno"`
			Domiciliado struct {
				Direccion    string `json:"direccion"`
				Departamento string `json:"departamento"`
				Provincia    string `json:"provincia"`
				Distrito     string `json:"distrito"`
			} `json:"domiciliado"`
		} `json:"datos"`
	}
	if err := doJSON(s.client, req, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, nil
	}

	return &Person{
		DNI:             dni,
		Nombres:         payload.Datos.Nombres,
		ApellidoPaterno: payload.Datos.ApePaterno,
		ApellidoMaterno: payload.Datos.ApeMaterno,
		Direccion:       payload.Datos.Domiciliado.Direccion,
		Region:          payload.Datos.Domiciliado.Departamento,
		Provincia:       payload.Datos.Domiciliado.Provincia,
		Distrito:        payload.Datos.Domiciliado.Distrito,
	}, nil
}

// consultaDatosSource queries api2.consultadatos.com through the
// allorigins proxy, which wraps the upstream body in a contents field.
type consultaDatosSource struct {
	cfg      app.LookupSourceConfig
	proxyURL string
	client   *http.Client
}

func newConsultaDatosSource(cfg app.LookupSourceConfig, client *http.Client) *consultaDatosSource {
	return &consultaDatosSource{
		cfg:      cfg,
		proxyURL: "https://api.allorigins.win/get",
		client:   client,
	}
}

func (s *consultaDatosSource) Name() string { return "consulta_datos" }

func (s *consultaDatosSource) Fetch(ctx context.Context, dni string) (*Person, error) {
	target := fmt.Sprintf("%s/api/dni/%s", strings.TrimSuffix(s.cfg.BaseURL, "/"), dni)
	endpoint := s.proxyURL + "?url=" + url.QueryEscape(target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Contents string `json:"contents"`
	}
	if err := doJSON(s.client, req, &envelope); err != nil {
		return nil, err
	}
	if envelope.Contents == "" {
		return nil, nil
	}

	var payload struct {
		DNI       string `json:"DNI"`
		Nombres   string `json:"NOMBRES"`
		ApPat     string `json:"AP_PAT"`
		ApMat     string `json:"AP_MAT"`
		FechaNac  string `json:"FECHA_NAC"`
		Direccion string `json:"DIRECCION"`
	}
	if err := json.Unmarshal([]byte(envelope.Contents), &payload); err != nil {
		return nil, fmt.Errorf("decode proxied body: %w", err)
	}
	if payload.DNI == "" && payload.Nombres == "" {
		return nil, nil
	}

	return &Person{
		DNI:             dni,
		Nombres:         payload.Nombres,
		ApellidoPaterno: payload.ApPat,
		ApellidoMaterno: payload.ApMat,
		FechaNacimiento: normalizeDate(payload.FechaNac),
		Direccion:       payload.Direccion,
	}, nil
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func splitSurname(surname string) (string, string) {
	parts := strings.Fields(surname)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// normalizeDate converts dd/mm/yyyy dates to ISO yyyy-mm-dd.
func normalizeDate(date string) string {
	if date == "" || strings.Contains(date, "-") {
		return date
	}
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return date
	}
	return fmt.Sprintf("%s-%s-%s", parts[2], parts[1], parts[0])
}
