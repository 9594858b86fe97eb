package types

import "strings"

// BillingInfo carries the invoicing data collected at checkout. Field names
// on the wire match the Chilean billing vocabulary used by the client.
type BillingInfo struct {
	RUT         string `json:"rut"`
	RazonSocial string `json:"razonSocial"`
	Direccion   string `json:"direccion"`
	Giro        string `json:"giro,omitempty"`
}

// MissingFields lists the required billing fields that are blank.
func (b BillingInfo) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(b.RUT) == "" {
		missing = append(missing, "rut")
	}
	if strings.TrimSpace(b.RazonSocial) == "" {
		missing = append(missing, "razonSocial")
	}
	if strings.TrimSpace(b.Direccion) == "" {
		missing = append(missing, "direccion")
	}
	return missing
}
