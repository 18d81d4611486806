package payment

import (
	"bytes"
	"context"
	"errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"vital_geo/client"
	"vital_geo/database"
	"vital_geo/model"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n")

func pngOfSize(n int) []byte {
	data := make([]byte, n)
	copy(data, pngHeader)
	return data
}

func newStore(t *testing.T) database.Store {
	store, err := database.NewFileStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	return store
}

func TestValidateScreenshot(t *testing.T) {
	assert.ErrorIs(t, ValidateScreenshot(nil), ErrScreenshotRequired)
	assert.ErrorIs(t, ValidateScreenshot(&Screenshot{Name: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a")}), ErrInvalidFileType)
	assert.ErrorIs(t, ValidateScreenshot(&Screenshot{Name: "big.png", ContentType: "image/png", Data: pngOfSize(MaxScreenshotSize + 1)}), ErrFileTooLarge)

	sniffed := &Screenshot{Name: "proof", Data: pngOfSize(1024)}
	require.NoError(t, ValidateScreenshot(sniffed))
	assert.Equal(t, "image/png", sniffed.ContentType)

	assert.NoError(t, ValidateScreenshot(&Screenshot{Name: "proof.jpg", ContentType: "image/jpg", Data: []byte{0xff, 0xd8, 0xff}}))
}

func newBackend(t *testing.T, handler http.HandlerFunc) (*client.Client, *int32) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL, time.Second, newStore(t))
	require.NoError(t, err)
	return c, &hits
}

func TestSubmitRejectsLargeImageBeforeNetwork(t *testing.T) {
	c, hits := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s := NewSubmitter(c, 0)

	_, err := s.Submit(context.Background(), Submission{
		ProductID:  "p1",
		Screenshot: &Screenshot{Name: "proof.png", ContentType: "image/png", Data: pngOfSize(6 << 20)},
	})

	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestSubmitRequiresProduct(t *testing.T) {
	c, hits := newBackend(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := NewSubmitter(c, 0).Submit(context.Background(), Submission{
		Screenshot: &Screenshot{Name: "proof.png", Data: pngOfSize(64)},
	})

	assert.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestSubmitSendsMultipart(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "p1", r.FormValue("productId"))
		assert.Equal(t, "Ayesha Khan", r.FormValue("accountName"))
		assert.Equal(t, "TRX-991", r.FormValue("transactionId"))
		_, header, err := r.FormFile("screenshot")
		if assert.NoError(t, err) {
			assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"Payment request submitted"}`))
	})

	res, err := NewSubmitter(c, 0).Submit(context.Background(), Submission{
		ProductID:     "p1",
		AccountName:   "Ayesha Khan",
		TransactionID: "TRX-991",
		Screenshot:    &Screenshot{Name: "proof.png", Data: pngOfSize(512)},
	})

	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, res.RedirectAfter)
}

func TestSubmitSurfacesServerMessage(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Product not found"}`))
	})

	_, err := NewSubmitter(c, 0).Submit(context.Background(), Submission{
		ProductID:  "missing",
		Screenshot: &Screenshot{Name: "proof.png", Data: pngOfSize(64)},
	})

	assert.EqualError(t, err, "Product not found")
}

type fakeTransactions struct {
	payments []model.Payment
	err      error
}

func (f *fakeTransactions) MyTransactions(ctx context.Context) ([]model.Payment, error) {
	return f.payments, f.err
}

func payment(id string, status model.PaymentStatus) model.Payment {
	return model.Payment{
		ID:        id,
		BookingID: "BK-" + id,
		Product:   &model.PaymentProduct{ID: "p1", Name: "Kashmir Blue Sapphire"},
		Amount:    15750,
		Status:    status,
	}
}

func TestWatcherNotifiesOnlyOnTransitions(t *testing.T) {
	api := &fakeTransactions{payments: []model.Payment{payment("1", model.PaymentStatusPending), payment("2", model.PaymentStatusPending)}}
	w := NewWatcher(api, newStore(t), time.Minute, nil)

	notes, err := w.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notes)

	rejected := payment("2", model.PaymentStatusRejected)
	rejected.Notes = "Transaction ID not found"
	api.payments = []model.Payment{payment("1", model.PaymentStatusVerified), rejected}

	notes, err = w.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Payment Accepted!", notes[0].Title)
	assert.Equal(t, "Your payment of $15,750 for Kashmir Blue Sapphire has been verified successfully.", notes[0].Message)
	assert.Equal(t, "Payment Rejected", notes[1].Title)
	assert.Equal(t, "Your payment request has been rejected. Reason: Transaction ID not found", notes[1].Message)
	assert.NotEqual(t, notes[0].ID, notes[1].ID)

	notes, err = w.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestWatcherStatePersistsAcrossRestarts(t *testing.T) {
	store := newStore(t)
	api := &fakeTransactions{payments: []model.Payment{payment("1", model.PaymentStatusPending)}}
	_, err := NewWatcher(api, store, time.Minute, nil).Refresh(context.Background())
	require.NoError(t, err)

	// decided while no watcher was running
	api.payments = []model.Payment{payment("1", model.PaymentStatusVerified)}
	restarted := NewWatcher(api, store, time.Minute, nil)
	var delivered []Notification
	restarted.Subscribe(func(n Notification) { delivered = append(delivered, n) })

	notes, err := restarted.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, notes, 1)
	assert.Len(t, delivered, 1)

	again, err := NewWatcher(api, store, time.Minute, nil).Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestWatcherKeepsStatePerUser(t *testing.T) {
	store := newStore(t)
	owner := "userA"
	api := &fakeTransactions{payments: []model.Payment{payment("a1", model.PaymentStatusPending)}}
	w := NewWatcher(api, store, time.Minute, func() string { return owner })

	_, err := w.Refresh(context.Background())
	require.NoError(t, err)

	owner = "userB"
	api.payments = []model.Payment{payment("b1", model.PaymentStatusPending)}
	_, err = w.Refresh(context.Background())
	require.NoError(t, err)

	// a1 decided while userB was signed in
	owner = "userA"
	api.payments = []model.Payment{payment("a1", model.PaymentStatusVerified)}
	restarted := NewWatcher(api, store, time.Minute, func() string { return owner })
	notes, err := restarted.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "a1", notes[0].PaymentID)
}

func TestWatcherRefreshError(t *testing.T) {
	w := NewWatcher(&fakeTransactions{err: errors.New("offline")}, newStore(t), time.Minute, nil)

	_, err := w.Refresh(context.Background())

	assert.Error(t, err)
	assert.Empty(t, w.Payments())
}

func TestFilterByStatus(t *testing.T) {
	payments := []model.Payment{
		payment("1", model.PaymentStatusPending),
		payment("2", model.PaymentStatusVerified),
		payment("3", model.PaymentStatusRejected),
	}

	assert.Len(t, FilterByStatus(payments, "all"), 3)
	assert.Len(t, FilterByStatus(payments, ""), 3)
	verified := FilterByStatus(payments, "verified")
	require.Len(t, verified, 1)
	assert.Equal(t, "2", verified[0].ID)
	assert.Empty(t, FilterByStatus(payments[:1], "rejected"))
}

func TestRenderReceipt(t *testing.T) {
	verifiedAt := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	p := payment("1", model.PaymentStatusVerified)
	p.TransactionID = "TRX-991"
	p.CreatedAt = time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	p.VerifiedAt = &verifiedAt

	var buf bytes.Buffer
	require.NoError(t, RenderReceipt(&buf, p))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "VitalGeo Naturals\nTransaction Receipt\n"))
	assert.Contains(t, out, "Booking ID:      BK-1\n")
	assert.Contains(t, out, "Amount Paid:     $15,750\nTransaction ID:  TRX-991\nPayment Date:    March 2, 2026\nVerified Date:   March 4, 2026\n")
	assert.NotContains(t, out, "Account Name")
	assert.Contains(t, out, "[ VERIFIED ]")
	assert.Contains(t, out, "For inquiries, please contact VitalGeo Naturals.")
}

func TestRenderReceiptRequiresVerified(t *testing.T) {
	p := payment("1", model.PaymentStatusPending)
	p.Product = nil

	assert.ErrorIs(t, RenderReceipt(&bytes.Buffer{}, p), ErrReceiptUnavailable)
	assert.Equal(t, "N/A", p.ProductName())
}

func TestReceiptFilename(t *testing.T) {
	at := time.Date(2026, 3, 5, 23, 30, 0, 0, time.FixedZone("PKT", 5*3600))
	assert.Equal(t, "Receipt-BK-1-2026-03-05.txt", ReceiptFilename(payment("1", model.PaymentStatusVerified), at))
}

func TestExportTransactions(t *testing.T) {
	payments := []model.Payment{payment("1", model.PaymentStatusVerified), payment("2", model.PaymentStatusPending)}

	var buf bytes.Buffer
	require.NoError(t, ExportTransactions(&buf, payments))

	book, err := xlsx.OpenReaderAt(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, book.Sheets, 1)
	sheet := book.Sheets[0]
	require.Equal(t, 3, sheet.MaxRow)
	assert.Equal(t, "BookingID", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "BK-2", sheet.Rows[2].Cells[0].String())
	assert.Equal(t, "pending", sheet.Rows[2].Cells[3].String())
}

type countingTransactions struct {
	calls int32
}

func (c *countingTransactions) MyTransactions(ctx context.Context) ([]model.Payment, error) {
	atomic.AddInt32(&c.calls, 1)
	return nil, nil
}

func TestWatcherRunSkipsWhileInactive(t *testing.T) {
	api := &countingTransactions{}
	w := NewWatcher(api, newStore(t), 5*time.Millisecond, nil)
	var active int32

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, func() bool { return atomic.LoadInt32(&active) == 1 })
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.calls))

	atomic.StoreInt32(&active, 1)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&api.calls) >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
