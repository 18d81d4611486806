package payment

import (
	"bytes"
	"context"
	"errors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"net/http"
	"strings"
	"time"
	"vital_geo/client"
	"vital_geo/model"
)

// MaxScreenshotSize is the largest proof image accepted, 5 MiB.
const MaxScreenshotSize = 5 << 20

var (
	ErrScreenshotRequired = errors.New("Please upload a payment screenshot")
	ErrInvalidFileType    = errors.New("Please upload an image file (JPEG or PNG)")
	ErrFileTooLarge       = errors.New("Image size must be less than 5MB")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

type Screenshot struct {
	Name        string
	ContentType string
	Data        []byte
}

// Submission is the payment proof form.
type Submission struct {
	ProductID     string `validate:"required"`
	AccountName   string `validate:"max=200"`
	TransactionID string `validate:"max=200"`
	Screenshot    *Screenshot
}

// ValidateScreenshot checks the proof image. When no content type was
// declared it is sniffed from the data.
func ValidateScreenshot(s *Screenshot) error {
	if s == nil || len(s.Data) == 0 {
		return ErrScreenshotRequired
	}
	contentType := strings.ToLower(strings.TrimSpace(s.ContentType))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(s.Data)
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !allowedTypes[contentType] {
		return ErrInvalidFileType
	}
	s.ContentType = contentType
	if len(s.Data) > MaxScreenshotSize {
		return ErrFileTooLarge
	}
	return nil
}

var validate = validator.New()

// Validate runs every client-side check; nothing is sent when it fails.
func (s *Submission) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	return ValidateScreenshot(s.Screenshot)
}

type SubmitAPI interface {
	SubmitPayment(ctx context.Context, form client.PaymentForm) (model.MessageResponse, error)
}

type Result struct {
	Message string
	// RedirectAfter is how long to wait before showing the transactions list.
	RedirectAfter time.Duration
}

type Submitter struct {
	api           SubmitAPI
	redirectDelay time.Duration
}

func NewSubmitter(api SubmitAPI, redirectDelay time.Duration) *Submitter {
	if redirectDelay <= 0 {
		redirectDelay = 2 * time.Second
	}
	return &Submitter{api: api, redirectDelay: redirectDelay}
}

const submitFailed = "Failed to submit payment"

func (s *Submitter) Submit(ctx context.Context, sub Submission) (*Result, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	form := client.PaymentForm{
		ProductID:      sub.ProductID,
		AccountName:    sub.AccountName,
		TransactionID:  sub.TransactionID,
		ScreenshotName: sub.Screenshot.Name,
		ScreenshotType: sub.Screenshot.ContentType,
		Screenshot:     bytes.NewReader(sub.Screenshot.Data),
	}
	resp, err := s.api.SubmitPayment(ctx, form)
	if err != nil {
		logrus.Errorf("Submit: error in submitting payment err = %v", err)
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return nil, errors.New(apiErr.Message)
		}
		return nil, errors.New(submitFailed)
	}
	if !resp.Success {
		if resp.Message != "" {
			return nil, errors.New(resp.Message)
		}
		return nil, errors.New(submitFailed)
	}

	return &Result{
		Message:       "Your payment request has been submitted and is pending verification. You can check the status in My Transactions.",
		RedirectAfter: s.redirectDelay,
	}, nil
}
