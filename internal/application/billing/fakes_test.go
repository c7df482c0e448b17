package billing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/domain/invoice"
)

type fakeAuthorizer struct {
	last      int64
	lastErr   error
	results   map[string]*AuthorizationResult // por NroDoc
	fallback  *AuthorizationResult
	reqErr    error
	requested []*invoice.Invoice
}

func (f *fakeAuthorizer) LastAuthorized(_ context.Context, _, _ int) (int64, error) {
	if f.lastErr != nil {
		return 0, f.lastErr
	}
	return f.last, nil
}

func (f *fakeAuthorizer) RequestCAE(_ context.Context, inv *invoice.Invoice) (*AuthorizationResult, error) {
	f.requested = append(f.requested, inv)
	if f.reqErr != nil {
		return nil, f.reqErr
	}
	if r, ok := f.results[inv.Header().NroDoc]; ok {
		return r, nil
	}
	if f.fallback != nil {
		return f.fallback, nil
	}
	f.last++
	return &AuthorizationResult{Status: "A", CAE: "74123456789012", Expiry: "20240215"}, nil
}

type fakeRenderer struct {
	err      error
	rendered []*invoice.Invoice
}

func (f *fakeRenderer) Render(_ context.Context, inv *invoice.Invoice) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.rendered = append(f.rendered, inv)
	return []byte("%PDF-1.4 fake"), nil
}

type fakeLedger struct {
	recorded []*invoice.Invoice
	err      error
	exists   bool
}

func (f *fakeLedger) Record(_ context.Context, inv *invoice.Invoice) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, inv)
	return nil
}

func (f *fakeLedger) Exists(_ context.Context, _, _ int, _ int64) (bool, error) {
	return f.exists, nil
}

var errBoom = errors.New("boom")

func testTemplate() MemberTemplate {
	return MemberTemplate{
		Address:         "Av. Siempreviva 742",
		City:            "Rosario",
		ZipCode:         "2000",
		Province:        "Santa Fe",
		ItemDescription: "Cuota social",
		InvoiceDate:     time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		ServiceDateFrom: "20240201",
		ServiceDateTo:   "20240229",
		SellingPoint:    3,
	}
}

func memberInvoice(nroDoc string, amount string) *invoice.Invoice {
	inv, err := MemberInvoiceFactory(testTemplate())(Record{
		Line:           2,
		Name:           "Juan Perez",
		DocumentNumber: nroDoc,
		Amount:         decimal.RequireFromString(amount),
	})
	if err != nil {
		panic(err)
	}
	return inv
}
