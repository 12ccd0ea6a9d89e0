// Package pdf renders a contract's structured data into a PDF document and
// persists it to a storage backend.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/autora/contract-service/audit"
	"github.com/autora/contract-service/models"
)

// GenerationError reports a failed render or store, carrying the contract ID
// for audit correlation.
type GenerationError struct {
	ContractID string
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate document for contract %s: %v", e.ContractID, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

type field struct {
	label string
	value string
}

type section struct {
	title      string
	fields     []field
	paragraphs []string
}

type Renderer struct {
	storage Storage
	auditor *audit.Logger

	// renderOrderDetails switches the vehicle orders section from a count
	// summary to a full per-order field listing.
	renderOrderDetails bool
}

func NewRenderer(storage Storage, auditor *audit.Logger, renderOrderDetails bool) *Renderer {
	return &Renderer{
		storage:            storage,
		auditor:            auditor,
		renderOrderDetails: renderOrderDetails,
	}
}

// GenerateDocument renders the contract to PDF, stores it, and returns the
// storage location. The contract itself is not mutated.
func (r *Renderer) GenerateDocument(ctx context.Context, contract *models.Contract) (string, error) {
	data, err := r.render(contract)
	if err != nil {
		r.auditor.LogPDFGenerationFailed(ctx, contract.ContractID, err.Error())
		return "", &GenerationError{ContractID: contract.ContractID, Err: err}
	}

	objectName := strings.ToLower(contract.ContractID) + ".pdf"
	location, err := r.storage.Store(ctx, objectName, data)
	if err != nil {
		r.auditor.LogPDFGenerationFailed(ctx, contract.ContractID, err.Error())
		return "", &GenerationError{ContractID: contract.ContractID, Err: err}
	}

	r.auditor.LogPDFGenerated(ctx, contract.ContractID, location)
	return location, nil
}

func (r *Renderer) render(contract *models.Contract) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, "VEHICLE PURCHASE CONTRACT", "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, "Contract ID: "+contract.ContractID, "", 1, "C", false, 0, "")
	doc.CellFormat(0, 6, "Generated: "+time.Now().Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	doc.Ln(6)

	for _, sec := range buildSections(contract, r.renderOrderDetails) {
		doc.SetFont("Helvetica", "B", 13)
		doc.CellFormat(0, 8, sec.title, "B", 1, "L", false, 0, "")
		doc.Ln(2)

		doc.SetFont("Helvetica", "", 10)
		for _, f := range sec.fields {
			doc.SetFont("Helvetica", "B", 10)
			doc.CellFormat(60, 6, f.label+":", "", 0, "L", false, 0, "")
			doc.SetFont("Helvetica", "", 10)
			doc.MultiCell(0, 6, f.value, "", "L", false)
		}
		for _, p := range sec.paragraphs {
			doc.MultiCell(0, 6, p, "", "L", false)
		}
		doc.Ln(4)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf rendering failed: %w", err)
	}
	return buf.Bytes(), nil
}

// buildSections maps the contract's opaque documents onto the fixed document
// layout. Absent or blank fields are skipped silently.
func buildSections(contract *models.Contract, renderOrderDetails bool) []section {
	customer := section{title: "Customer Information"}
	for _, f := range []struct{ label, key string }{
		{"Customer Name", "customerName"},
		{"Customer Company", "customerCompany"},
		{"Customer Type", "customerType"},
		{"Email", "customerEmail"},
		{"Phone", "customerPhone"},
		{"Address", "customerAddress"},
		{"Tax ID", "customerTaxId"},
	} {
		if v := stringValue(contract.CustomerDetails, f.key); v != "" {
			customer.fields = append(customer.fields, field{label: f.label, value: v})
		}
	}

	finance := section{title: "Finance Details"}
	for _, f := range []struct{ label, key string }{
		{"Finance Type", "type"},
		{"Provider", "provider"},
		{"Approval Status", "approvalStatus"},
		{"Reference Number", "referenceNumber"},
		{"Terms (Months)", "termsInMonths"},
		{"Interest Rate", "interestRate"},
	} {
		if v := stringValue(contract.FinanceDetails, f.key); v != "" {
			finance.fields = append(finance.fields, field{label: f.label, value: v})
		}
	}

	orders := section{title: "Vehicle Orders"}
	if len(contract.MassOrders) > 0 {
		if renderOrderDetails {
			for i, raw := range contract.MassOrders {
				order, ok := raw.(map[string]interface{})
				if !ok {
					continue
				}
				orders.paragraphs = append(orders.paragraphs, fmt.Sprintf("Order %d:", i+1))
				keys := make([]string, 0, len(order))
				for k := range order {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					if v := stringValue(order, k); v != "" {
						orders.fields = append(orders.fields, field{label: k, value: v})
					}
				}
			}
		} else {
			orders.paragraphs = append(orders.paragraphs,
				"Vehicle configuration and pricing details as specified in the order.",
				fmt.Sprintf("Number of mass orders: %d", len(contract.MassOrders)),
			)
		}
	}

	terms := section{
		title: "Contract Terms",
		paragraphs: []string{
			"This contract represents the agreement between the customer and the retailer for the purchase of the specified vehicles.",
			"Deal ID: " + contract.DealID,
			"Purchase Request ID: " + contract.PurchaseRequestID,
		},
	}

	return []section{customer, finance, orders, terms}
}

func stringValue(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		// JSON numbers decode as float64; keep integers readable
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
