package models

// Requests for the scoring HTTP endpoints. Defined in domain for consistency and reuse.

type OrganismsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1d 1h 5m"`
}

type OrganismRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Name   string `query:"name" json:"name" validate:"required"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1d 1h 5m"`
}

type FearGreedRequest struct {
	Symbol string  `query:"symbol" json:"symbol" validate:"required"`
	N      int     `query:"n" json:"n" default:"600" validate:"gte=1,lte=5000"`
	TF     string  `query:"tf" json:"tf" default:"1d" validate:"oneof=1d 1h 5m"`
	Env    float64 `query:"env" json:"env" validate:"gte=-5,lte=5"`
}

type RetraceRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"1200" validate:"gte=1,lte=10000"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1d 1h 5m"`
}

type BarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1d 1h 5m"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=0,lte=50000"`
}
