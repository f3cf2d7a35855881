package adaptor

import (
	"net/http"

	"contacts-api/internal/dto/request"
	"contacts-api/internal/usecase"
	"contacts-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ContactHandler struct {
	service usecase.ContactService
	log     *zap.Logger
}

func NewContactHandler(service usecase.ContactService, log *zap.Logger) *ContactHandler {
	return &ContactHandler{
		service: service,
		log:     log.With(zap.String("handler", "contact")),
	}
}

// Create handles POST /api/contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Not authenticated")
		return
	}

	var req request.CreateContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	contact, err := h.service.CreateContact(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create contact")
		return
	}

	utils.ResponseCreated(w, "Contact created successfully", contact)
}

// List handles GET /api/contacts?skip&limit
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Not authenticated")
		return
	}

	contacts, err := h.service.ListContacts(r.Context(), userID, pageFromQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "list contacts")
		return
	}

	utils.ResponseSuccess(w, "Contacts retrieved successfully", contacts)
}

// Get handles GET /api/contacts/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, contactID, ok := h.ids(w, r)
	if !ok {
		return
	}

	contact, err := h.service.GetContact(r.Context(), userID, contactID)
	if err != nil {
		handleServiceError(w, h.log, err, "get contact")
		return
	}

	utils.ResponseSuccess(w, "Contact retrieved successfully", contact)
}

// Update handles PUT /api/contacts/{id}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, contactID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req request.UpdateContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	contact, err := h.service.UpdateContact(r.Context(), userID, contactID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update contact")
		return
	}

	utils.ResponseSuccess(w, "Contact updated successfully", contact)
}

// Delete handles DELETE /api/contacts/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, contactID, ok := h.ids(w, r)
	if !ok {
		return
	}

	contact, err := h.service.DeleteContact(r.Context(), userID, contactID)
	if err != nil {
		handleServiceError(w, h.log, err, "delete contact")
		return
	}

	utils.ResponseSuccess(w, "Contact deleted successfully", contact)
}

// Search handles GET /api/contacts/search?q
func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Not authenticated")
		return
	}

	contacts, err := h.service.SearchContacts(r.Context(), userID, r.URL.Query().Get("q"), pageFromQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "search contacts")
		return
	}

	utils.ResponseSuccess(w, "Contacts retrieved successfully", contacts)
}

// UpcomingBirthdays handles GET /api/contacts/birthdays/upcoming?days
func (h *ContactHandler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Not authenticated")
		return
	}

	days := utils.ParseInt(r.URL.Query().Get("days"), 7, 1)

	contacts, err := h.service.UpcomingBirthdays(r.Context(), userID, days)
	if err != nil {
		handleServiceError(w, h.log, err, "get upcoming birthdays")
		return
	}

	utils.ResponseSuccess(w, "Upcoming birthdays retrieved successfully", contacts)
}

func (h *ContactHandler) ids(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Not authenticated")
		return 0, 0, false
	}

	contactID, ok := utils.ParseID(chi.URLParam(r, "id"))
	if !ok {
		utils.ResponseBadRequest(w, "Invalid contact ID", nil)
		return 0, 0, false
	}

	return userID, contactID, true
}

func pageFromQuery(r *http.Request) request.PaginatedRequest {
	query := r.URL.Query()
	return request.PaginatedRequest{
		Skip:  utils.ParseInt(query.Get("skip"), 0, 0),
		Limit: utils.ParseInt(query.Get("limit"), utils.DefaultLimit, 1),
	}
}
