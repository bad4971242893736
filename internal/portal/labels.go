// File: internal/portal/labels.go
package portal

import (
	"regexp"
	"strings"
)

// DefaultFallbackPrefix namespaces canonical names produced for table headers
// the dictionary does not recognize. Keeping unknown headers in their own
// namespace means a new portal label can never overwrite a known field; the
// prefixed entries surface in the output so the dictionary can be extended.
const DefaultFallbackPrefix = "unrecognized:"

// LabelDictionary maps the portal's localized table headers to canonical
// field names for one query type. The same raw header can map to different
// canonical names depending on query type, so three independent dictionaries
// exist. Canonicalize is total: every input yields a defined name.
type LabelDictionary struct {
	name           string
	fallbackPrefix string
	fields         map[string]string
}

var labelWhitespace = regexp.MustCompile(`\s+`)

// normalizeLabel lowercases the raw header, strips a trailing colon and joins
// internal whitespace with underscores.
func normalizeLabel(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, ":")
	s = strings.TrimSpace(s)
	return labelWhitespace.ReplaceAllString(s, "_")
}

// Canonicalize resolves a raw portal header to its canonical field name.
// Unrecognized headers map into the dictionary's fallback namespace.
func (d *LabelDictionary) Canonicalize(raw string) string {
	key := normalizeLabel(raw)
	if field, ok := d.fields[key]; ok {
		return field
	}
	return d.fallbackPrefix + key
}

// Name identifies the dictionary in logs.
func (d *LabelDictionary) Name() string { return d.name }

func newDictionary(name, fallbackPrefix string, fields map[string]string) *LabelDictionary {
	if fallbackPrefix == "" {
		fallbackPrefix = DefaultFallbackPrefix
	}
	return &LabelDictionary{name: name, fallbackPrefix: fallbackPrefix, fields: fields}
}

// NewChassisDictionary builds the dictionary for the chassis status query.
// Note the bare "renavam" header: this query type publishes it as the
// historical "reindeer" field, which downstream consumers already depend on.
func NewChassisDictionary(fallbackPrefix string) *LabelDictionary {
	return newDictionary("chassis_status", fallbackPrefix, map[string]string{
		"chassi":                "chassis",
		"remarcação":            "ident_remark",
		"marca/modelo":          "manufacture_model",
		"placa/uf":              "plate_state",
		"placa":                 "plate",
		"uf":                    "state",
		"renavam":               "reindeer",
		"situação_do_gravame":   "lien_state",
		"situação_do_veículo":   "vehicle_status",
		"data_situação":         "status_date",
		"cpf/cnpj_financiado":   "financed_document",
		"nome_financiado":       "financed_name",
		"código_do_agente":      "agent_code",
		"cnpj_agente":           "agent_document",
		"nome_agente":           "agent_name",
		"número_do_contrato":    "contract_number",
		"data_do_contrato":      "contract_date",
		"descrição_do_contrato": "contract_description",
		"restrição_informante":  "informant_restriction",
		"uf_atualização_detran": "uf_detran_update",
		"assinatura_eletrônica": "electronic_signature",
	})
}

// NewBinDictionary builds the dictionary for the BIN query.
func NewBinDictionary(fallbackPrefix string) *LabelDictionary {
	return newDictionary("bin", fallbackPrefix, map[string]string{
		"placa/uf":                     "plate_state",
		"tipo":                         "type",
		"espécie":                      "species",
		"tipo_carroceria":              "body_type",
		"marca/modelo":                 "brand_model",
		"cpf/cnpj_proprietário":        "owner_document_number",
		"ano_fabricação/modelo":        "manufacture_model_year",
		"combustível":                  "fuel",
		"renavam":                      "renavam",
		"chassi":                       "chassis",
		"cor":                          "color",
		"município_emplacamento":       "registration_city",
		"lotação":                      "seats",
		"número_motor":                 "engine_number",
		"número_caixa_câmbio":          "gear_number",
		"quantidade_eixos":             "number_axles",
		"número_eixo_traseiro":         "rear_axle_number",
		"número_eixo_auxiliar":         "axle_number_auxiliary",
		"número_carroceria":            "body_number",
		"potência":                     "power",
		"cilindrada":                   "displacement",
		"capacidade_de_carga":          "tons_load_capacity",
		"peso_bruto_total":             "tons_total_gross_weight",
		"capacidade_máxima_de_tração":  "tons_maximum_traction_capacity",
		"1ª_restrição":                 "1st_restriction",
		"2ª_restrição":                 "2nd_restriction",
		"3ª_restrição":                 "3rd_restriction",
		"4ª_restrição":                 "4th_restriction",
		"uf_faturamento":               "billing_uf",
		"cpf/cnpj_faturamento":         "billing_document_number",
		"data_última_atualização":      "last_update_date",
		"indicador_restrição_renajud":  "indicator_renajud_restriction",
		"descrição_pendência_emissão":  "description_pending_issue",
		"descrição_multa_renainf":      "description_renainf_fine",
		"descrição_comunicado_venda":   "description_sale_communication",
		"descrição_recall_1":           "description_recall_1",
		"descrição_recall_2":           "description_recall_2",
		"descrição_recall_3":           "description_recall_3",
		"descrição_recall_montadora":   "description_assembler_recall",
		"descrição_categoria_veíc_mre": "description_vehicle_category_mre",
		"descrição_tipo_doc_prop_indicado": "description_type_document_owner_indicated",
		"cpf/cnpj_propriedade_indicado":    "document_number_ownership_indicated",
		"data_última_atualização_mre":      "date_last_update_mre",
		"placa_eletrônica":                 "electronic_license_plate",
		"descrição_origem_propriedade":     "description_origin_property",
		"indicação_rfb":                    "rfb_indication",
		"limite_restrição_tributária":      "tax_restriction_limit",
		"indicador_placa_a_vácuo":          "vaccum_plate_indicator",
		"indicador_de_restrições":          "restrictions_indicator",
		"data_pré-cadastro":                "pre_registration_date",
	})
}

// NewVehiclesDictionary builds the dictionary for the vehicles-by-document
// listing.
func NewVehiclesDictionary(fallbackPrefix string) *LabelDictionary {
	return newDictionary("vehicles", fallbackPrefix, map[string]string{
		"placa/uf":       "plate_state",
		"chassi":         "chassis",
		"marca/modelo":   "brand_model",
		"ano_fabricação": "manufacture_year",
		"cor":            "color",
		"situação":       "status",
	})
}
