package echoapi

import (
	"net/mail"

	"github.com/go-playground/validator/v10"

	"github.com/miltrack/miltrack/core"
	"github.com/miltrack/miltrack/core/training"
)

type (
	// ReportRequest names the recipients of an emailed progress report.
	ReportRequest struct {
		Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
	}

	ReportResponse struct {
		Recipients int `json:"recipients"`
	}

	InstanceCreatedResponse struct {
		Instance   training.Instance `json:"instance"`
		TrackCount int               `json:"track_count"`
	}
)

func (r *ReportRequest) Validate(validate *validator.Validate) error {
	for i, addr := range r.Recipients {
		r.Recipients[i] = core.CleanString(addr, true)
	}
	return validate.Struct(r)
}

func (r *ReportRequest) Addresses() []mail.Address {
	addrs := make([]mail.Address, 0, len(r.Recipients))
	for _, addr := range r.Recipients {
		addrs = append(addrs, mail.Address{Address: addr})
	}
	return addrs
}
