package handler

import (
	"net/http"

	"soulbalance/internal/config"
	"soulbalance/internal/middleware"
	"soulbalance/internal/service"
	"soulbalance/internal/session"
	"soulbalance/internal/view"
)

// contactSubjects are the choices offered by the contact form.
var contactSubjects = []string{
	"General Inquiry", "Wellness Support", "Yoga Classes", "Meditation Guidance",
	"Collaboration", "Technical Issue", "Feedback", "Other",
}

// SiteHandler serves the static pages and the contact form.
type SiteHandler struct {
	contact    *service.ContactService
	view       *view.View
	sm         session.Manager
	categories []config.CategoryConfig
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(contact *service.ContactService, v *view.View, sm session.Manager, categories []config.CategoryConfig) *SiteHandler {
	return &SiteHandler{contact: contact, view: v, sm: sm, categories: categories}
}

func (h *SiteHandler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) *middleware.AppError {
	return renderPage(h.view, w, r, http.StatusOK, name, data)
}

func (h *SiteHandler) handleAbout(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.render(w, r, "about.html", map[string]interface{}{"Title": "About Us"})
}

func (h *SiteHandler) handleCategories(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.render(w, r, "categories.html", map[string]interface{}{
		"Title":      "Categories",
		"Categories": h.categories,
	})
}

func (h *SiteHandler) handleContactPage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.render(w, r, "contact.html", map[string]interface{}{
		"Title":    "Contact Us",
		"Subjects": contactSubjects,
		"Input":    service.ContactInput{},
		"Errors":   map[string]string{},
	})
}

// handleContact validates and stores a contact message, re-rendering the
// form with field errors when it is invalid.
func (h *SiteHandler) handleContact(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	in := service.ContactInput{
		FirstName: trimmed(r, "first_name"),
		LastName:  trimmed(r, "last_name"),
		Email:     trimmed(r, "email"),
		Phone:     trimmed(r, "phone"),
		Subject:   trimmed(r, "subject"),
		Message:   trimmed(r, "message"),
		IPAddress: middleware.ClientIP(r),
	}
	if errs := service.ValidateContact(in); len(errs) > 0 {
		return renderPage(h.view, w, r, http.StatusBadRequest, "contact.html", map[string]interface{}{
			"Title":    "Contact Us",
			"Subjects": contactSubjects,
			"Input":    in,
			"Errors":   errs,
			"Error":    "Please correct the errors in the form",
		})
	}
	if err := h.contact.Submit(r.Context(), in); err != nil {
		return appError(err, "Sorry, there was an error sending your message. Please try again.")
	}
	middleware.SetFlash(r.Context(), h.sm, "Thank you for your message! We'll get back to you soon.")
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
	return nil
}
