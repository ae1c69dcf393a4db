package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"p9e.in/idfsurvey/handlers"
	"p9e.in/idfsurvey/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(survey *handlers.SurveyHandler, uploadsDir string) http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")
	if uploadsDir != "" {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))),
		)
	}

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/survey/accounts/{acctId}", survey.LookupAccount).Methods("GET")
	api.HandleFunc("/survey/categories", survey.ListCategories).Methods("GET")
	api.HandleFunc("/survey/categories/{category}", survey.GetCategoryRule).Methods("GET")
	api.HandleFunc("/survey/submissions", survey.CreateSubmission).Methods("POST")
	api.HandleFunc("/survey/submissions", survey.ListSubmissions).Methods("GET")
	api.HandleFunc("/survey/submissions/export", survey.ExportSubmissionsToExcel).Methods("GET")
	api.HandleFunc("/survey/submissions/export/csv", survey.ExportSubmissionsToCSV).Methods("GET")
	api.HandleFunc("/survey/submissions/{id}", survey.GetSubmission).Methods("GET")

	// =====================================================
	// Admin Routes (require admin role)
	// =====================================================
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Handle("/refdata/reload",
		middleware.RequireRole([]string{"Super Admin", "Admin"},
			http.HandlerFunc(survey.ReloadRefdata))).Methods("POST")

	return r
}
