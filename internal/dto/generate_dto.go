package dto

import (
	"github.com/google/uuid"

	"github.com/ryounan4/Cramify/internal/entity"
	"github.com/ryounan4/Cramify/pkg/utils"
)

type FileInfo struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	SizeDisplay string `json:"size_display"`
}

// StateResponse is the form view returned by the state endpoint and pushed
// over the websocket on every transition.
type StateResponse struct {
	Status      string     `json:"status"`
	Message     string     `json:"message,omitempty"`
	ArtifactId  *uuid.UUID `json:"artifact_id,omitempty"`
	ArtifactURL string     `json:"artifact_url,omitempty"`
	Files       []FileInfo `json:"files"`
	GateOpen    bool       `json:"gate_open"`
}

func ToStateResponse(form *entity.Form) *StateResponse {
	res := &StateResponse{
		Status:   string(form.State.Status),
		Message:  form.State.Message,
		Files:    make([]FileInfo, 0, len(form.Files)),
		GateOpen: form.PendingGenerate,
	}
	for _, f := range form.Files {
		res.Files = append(res.Files, FileInfo{
			Name:        f.Name,
			Size:        f.Size,
			SizeDisplay: utils.FormatBytes(f.Size),
		})
	}
	if form.State.Status == entity.GenerationSucceeded && form.State.ArtifactId != uuid.Nil {
		id := form.State.ArtifactId
		res.ArtifactId = &id
		res.ArtifactURL = "/api/artifacts/" + id.String()
	}
	return res
}

// StateEvent is the websocket envelope for form state pushes.
type StateEvent struct {
	Type string         `json:"type"`
	Data *StateResponse `json:"data"`
}
