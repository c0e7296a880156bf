package handler

import (
	"net/http"
	"strings"

	"fxengine/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type GetRateResponse struct {
	Base          string           `json:"base" example:"EUR"`
	Quote         string           `json:"quote" example:"HUF"`
	RequestedDate string           `json:"requested_date,omitempty" example:"2024-05-12"`
	RateDateUsed  string           `json:"rate_date_used" example:"2024-05-10"`
	Rate          decimal.Decimal  `json:"rate" swaggertype:"string" example:"388.12500000"`
	Provisional   bool             `json:"provisional"`
	Source        string           `json:"source" example:"Frankfurter"`
	Warnings      []domain.Warning `json:"warnings"`
}

// GetRate godoc
// @Summary Look up a rate
// @Description Resolve the mid rate of base/quote for a day, falling back to the nearest known day with warnings
// @Tags Rates
// @Produce json
// @Param base path string true "Canonical base currency" example(EUR)
// @Param quote path string true "Quote currency" example(HUF)
// @Param date query string false "Day as YYYY-MM-DD, defaults to today"
// @Success 200 {object} GetRateResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /rates/{base}/{quote} [get]
func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	base := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "base")))
	quote := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "quote")))

	if err := h.validator.ValidateLookup(base, quote); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	res, err := h.engine.Lookup(r.Context(), base, quote, date)
	if err != nil {
		status, known := statusFor(err)
		if !known {
			logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetRate", "base": base, "quote": quote}).Error("rate lookup failed")
			writeError(w, status, "ups, couldn't look up the rate this time")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	resp := GetRateResponse{
		Base:         res.Base,
		Quote:        res.Quote,
		RateDateUsed: domain.FormatDate(res.RateDateUsed),
		Rate:         res.Rate,
		Provisional:  res.Provisional,
		Source:       res.Source,
		Warnings:     nonNilWarnings(res.Warnings),
	}
	if !date.IsZero() {
		resp.RequestedDate = domain.FormatDate(date)
	}
	writeJSON(w, http.StatusOK, resp)
}

func nonNilWarnings(ws []domain.Warning) []domain.Warning {
	if ws == nil {
		return []domain.Warning{}
	}
	return ws
}
