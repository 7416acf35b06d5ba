package handlers

import (
	"errors"
	"net/http"

	"github.com/courtside/community-league/services"
	"github.com/go-chi/chi/v5"
)

type PromoHandler struct {
	promoService services.PromoService
}

func NewPromoHandler(ps services.PromoService) *PromoHandler {
	return &PromoHandler{
		promoService: ps,
	}
}

func (h *PromoHandler) CreatePromo(w http.ResponseWriter, r *http.Request) {
	var input services.CreatePromoInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if fields := validateStruct(input); fields != nil {
		failedValidationResponse(w, r, fields)
		return
	}

	promo, err := h.promoService.CreatePromo(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"promo": promo,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PromoHandler) GetPromoByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		badRequestResponse(w, r, errors.New("missing promo code in URL path"))
		return
	}

	promo, err := h.promoService.GetPromoByCode(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"promo": promo,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PromoHandler) RedeemPromo(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		badRequestResponse(w, r, errors.New("missing promo code in URL path"))
		return
	}

	result, err := h.promoService.RedeemPromo(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"redeem": result,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
