package handler

import (
	"net/http"
	"strings"

	"fxengine/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ConvertResponse struct {
	Amount   decimal.Decimal  `json:"amount" swaggertype:"string" example:"100"`
	From     string           `json:"from" example:"USD"`
	To       string           `json:"to" example:"HUF"`
	Date     string           `json:"date,omitempty" example:"2024-05-10"`
	Result   decimal.Decimal  `json:"result" swaggertype:"string" example:"35937.50000000"`
	Warnings []domain.Warning `json:"warnings"`
}

// Convert godoc
// @Summary Convert an amount
// @Description Convert an amount between two supported currencies through the canonical base
// @Tags Rates
// @Produce json
// @Param amount query string true "Decimal amount" example(100.50)
// @Param from query string true "Source currency" example(USD)
// @Param to query string true "Target currency" example(HUF)
// @Param date query string false "Day as YYYY-MM-DD, defaults to today"
// @Success 200 {object} ConvertResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /convert [get]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := strings.ToUpper(strings.TrimSpace(q.Get("from")))
	to := strings.ToUpper(strings.TrimSpace(q.Get("to")))

	amount, err := decimal.NewFromString(strings.TrimSpace(q.Get("amount")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	if err = h.validator.ValidateConversion(from, to); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	conv, err := h.engine.ConvertWithDetails(r.Context(), amount, from, to, date)
	if err != nil {
		status, known := statusFor(err)
		if !known {
			logrus.WithError(err).WithFields(logrus.Fields{"handler": "Convert", "from": from, "to": to}).Error("conversion failed")
			writeError(w, status, "ups, couldn't convert the amount this time")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	resp := ConvertResponse{
		Amount:   conv.Amount,
		From:     conv.From,
		To:       conv.To,
		Result:   conv.Result,
		Warnings: nonNilWarnings(conv.Warnings),
	}
	if !date.IsZero() {
		resp.Date = domain.FormatDate(date)
	}
	writeJSON(w, http.StatusOK, resp)
}
