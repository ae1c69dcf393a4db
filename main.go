package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"p9e.in/idfsurvey/config"
	"p9e.in/idfsurvey/handlers"
	"p9e.in/idfsurvey/pkg/refdata"
	"p9e.in/idfsurvey/pkg/storage"
	"p9e.in/idfsurvey/routes"
	"p9e.in/idfsurvey/utils"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {

	versionFlag := flag.Bool("version", false, "Print version info and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("Version:   %s\n", Version)
		fmt.Printf("BuildTime: %s\n", BuildTime)
		os.Exit(0)
	}

	config.Connect()
	port := config.Getenv("PORT", "8080")

	if config.DB != nil {
		if err := config.Migrations(config.DB); err != nil {
			log.Fatalf("could not run migrations: %v", err)
		}
		if err := config.SeedAdminUser(); err != nil {
			log.Printf("Warning: admin seeding failed: %v", err)
		}
	}

	refPath := config.Getenv("REFDATA_PATH", "IDF_ACCT_ID.csv")
	table, err := refdata.Load(refPath)
	if err != nil {
		log.Fatalf("could not load reference table %s: %v", refPath, err)
	}
	log.Printf("Reference table loaded: %d rows", table.Len())

	blobs, uploadsDir := newBlobStore()
	rows := newRowSink()
	area := loadServiceArea()

	survey := handlers.NewSurveyHandler(table, refPath, blobs, rows, area)
	handler := routes.RegisterRoutes(survey, uploadsDir)
	handlerWithCORS := enableCORS(handler)
	log.Println("Server starting at port", port)
	log.Fatal(http.ListenAndServe(":"+port, handlerWithCORS))
}

// newBlobStore picks GCS in production and local disk in development,
// keyed off the same env signals Cloud Run sets.
func newBlobStore() (storage.BlobStore, string) {
	useGCS := os.Getenv("USE_GCS") == "true" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("K_SERVICE") != ""

	if useGCS {
		bucket := os.Getenv("GCS_BUCKET")
		if bucket == "" {
			log.Fatal("GCS_BUCKET must be set when GCS uploads are enabled")
		}
		store, err := storage.NewGCSStore(context.Background(), bucket, config.Getenv("GCS_FOLDER", "idf-survey"))
		if err != nil {
			log.Fatalf("could not create GCS store: %v", err)
		}
		return store, ""
	}

	dir := config.Getenv("UPLOAD_DIR", "./uploads")
	return storage.NewLocalStore(dir, "/uploads"), dir
}

// newRowSink appends to Postgres when a database is configured, otherwise
// to a local register workbook.
func newRowSink() storage.RowSink {
	if config.DB != nil {
		return storage.NewPostgresSink(config.DB)
	}
	path := config.Getenv("SHEET_PATH", "idf_survey_register.xlsx")
	log.Println("Appending submissions to workbook", path)
	return storage.NewWorkbookSink(path, "Sheet1")
}

func loadServiceArea() *utils.ServiceArea {
	path := os.Getenv("SERVICE_AREA_PATH")
	if path == "" {
		return nil
	}
	area, err := utils.LoadServiceArea(path)
	if err != nil {
		log.Printf("Warning: could not load service area %s: %v", path, err)
		return nil
	}
	return area
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Required CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		// Handle preflight (OPTIONS)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
