package main

import (
	"image"
	"image/png"
	"net/http"
	"strconv"
	"sync"

	"github.com/Noofbiz/craterdata/datasets"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve examples over HTTP",
	Long: `Serve examples over HTTP:
  GET /len
  GET /items/{index}/image.png
  GET /items/{index}/mask.png
  GET /items/{index}/crater`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(datasets.Options{})
		if err != nil {
			return err
		}
		defer ds.Close()

		klog.Infof("Serving %d examples on %s", ds.Len(), serveAddr)
		return http.ListenAndServe(serveAddr, newRouter(ds))
	},
}

// exampleServer serialises access to a dataset, which is not safe for
// concurrent use.
type exampleServer struct {
	mu sync.Mutex
	ds datasets.Dataset
}

func newRouter(ds datasets.Dataset) *mux.Router {
	s := &exampleServer{ds: ds}
	router := mux.NewRouter()
	router.HandleFunc("/len", s.getLen).Methods("GET")
	router.HandleFunc("/items/{index:[0-9]+}/image.png", s.getImage).Methods("GET")
	router.HandleFunc("/items/{index:[0-9]+}/mask.png", s.getMask).Methods("GET")
	router.HandleFunc("/items/{index:[0-9]+}/crater", s.getCrater).Methods("GET")
	return router
}

func (s *exampleServer) getLen(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := s.ds.Len()
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, map[string]int{"len": n})
}

// example loads the example named by the request, writing an error response
// and returning ok=false on failure.
func (s *exampleServer) example(w http.ResponseWriter, r *http.Request) (img, mask image.Image, crater datasets.Crater, ok bool) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid index")
		return nil, nil, crater, false
	}
	s.mu.Lock()
	img, mask, crater, err = s.ds.Example(idx)
	s.mu.Unlock()
	switch {
	case errors.Is(err, datasets.ErrIndexOutOfRange):
		respondWithError(w, http.StatusNotFound, err.Error())
		return nil, nil, crater, false
	case err != nil:
		klog.Errorf("Example %d: %+v", idx, err)
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, crater, false
	}
	return img, mask, crater, true
}

func (s *exampleServer) getImage(w http.ResponseWriter, r *http.Request) {
	if img, _, _, ok := s.example(w, r); ok {
		respondWithPNG(w, img)
	}
}

func (s *exampleServer) getMask(w http.ResponseWriter, r *http.Request) {
	if _, mask, _, ok := s.example(w, r); ok {
		respondWithPNG(w, mask)
	}
}

func (s *exampleServer) getCrater(w http.ResponseWriter, r *http.Request) {
	if _, _, crater, ok := s.example(w, r); ok {
		respondWithJSON(w, http.StatusOK, crater)
	}
}

func respondWithPNG(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, img); err != nil {
		klog.Errorf("Encoding PNG: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		klog.Errorf("Encoding response: %v", err)
		code = http.StatusInternalServerError
		response = []byte(`{"error": "encoding response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "listen address")
}
