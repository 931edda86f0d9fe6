package rest

import (
	"net/http"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/httpx"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/serr"
)

type uploadMediaResponse struct {
	URL string `json:"url"`
}

func (api *API) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	f, _, err := r.FormFile("image")
	if err != nil {
		httpx.HandleErr(w, r, serr.NewServiceError(err, http.StatusBadRequest, "invalid image"))
		return
	}
	defer f.Close()

	img := http.MaxBytesReader(w, f, api.maxMediaSize)
	url, err := api.media.Upload(img)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, uploadMediaResponse{URL: url})
}
