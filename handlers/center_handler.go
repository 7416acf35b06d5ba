package handlers

import (
	"errors"
	"net/http"

	"github.com/courtside/community-league/middleware"
	"github.com/courtside/community-league/services"
)

type CenterHandler struct {
	centerService services.CenterService
}

func NewCenterHandler(cs services.CenterService) *CenterHandler {
	return &CenterHandler{
		centerService: cs,
	}
}

func (h *CenterHandler) CreateCenter(w http.ResponseWriter, r *http.Request) {
	var input services.CreateCenterInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if fields := validateStruct(input); fields != nil {
		failedValidationResponse(w, r, fields)
		return
	}

	center, err := h.centerService.CreateCenter(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"center": center,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CenterHandler) GetCenterByID(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	center, err := h.centerService.GetCenterByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"center": center,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CenterHandler) ListCenters(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationFromQuery(r)

	centers, err := h.centerService.ListCenters(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"centers": centers,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CenterHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	centerID, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content type required"))
		return
	}

	center, err := h.centerService.UploadCenterPhoto(r.Context(), centerID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"center": center,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CenterHandler) AddBooking(w http.ResponseWriter, r *http.Request) {
	centerID, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.AddBookingInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.CenterID = centerID
	input.UserID = currentUserID

	if fields := validateStruct(input); fields != nil {
		failedValidationResponse(w, r, fields)
		return
	}

	booking, err := h.centerService.AddBooking(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"booking": booking,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
