package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/autora/contract-service/audit"
	"github.com/autora/contract-service/models"
	"github.com/autora/contract-service/stores"
	apptesting "github.com/autora/contract-service/testing"
)

type fakeStore struct {
	contracts map[string]*models.Contract
	saved     []*models.Contract

	existsResult bool
	existsErr    error
	saveErr      error
	saveErrOnce  bool
	findErr      error
	txErr        error
}

func newFakeStore() *fakeStore {
	return &fakeStore{contracts: make(map[string]*models.Contract)}
}

func (f *fakeStore) Save(ctx context.Context, contract *models.Contract) error {
	if f.saveErr != nil {
		err := f.saveErr
		if f.saveErrOnce {
			f.saveErr = nil
		}
		return err
	}
	copied := *contract
	f.contracts[contract.ContractID] = &copied
	f.saved = append(f.saved, &copied)
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, contractID string) (*models.Contract, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.contracts[contractID], nil
}

func (f *fakeStore) ExistsByPurchaseRequestID(ctx context.Context, purchaseRequestID string) (bool, error) {
	return f.existsResult, f.existsErr
}

func (f *fakeStore) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	if f.txErr != nil {
		return f.txErr
	}
	return fn(ctx)
}

type fakeRenderer struct {
	location string
	err      error
	calls    int
}

func (f *fakeRenderer) GenerateDocument(ctx context.Context, contract *models.Contract) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.location, nil
}

type fakeOutbox struct {
	enqueued []*models.OutboxMessage
	err      error
}

func (f *fakeOutbox) Enqueue(ctx context.Context, msg *models.OutboxMessage) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, msg)
	return nil
}

func newTestService(store *fakeStore, renderer *fakeRenderer, outbox *fakeOutbox) *ContractService {
	return NewContractService(store, renderer, outbox, audit.NewLogger(), "contract-events")
}

var contractIDPattern = regexp.MustCompile(`^CONTRACT-[0-9A-F]{8}$`)

func TestCreateContract_Success(t *testing.T) {
	store := newFakeStore()
	renderer := &fakeRenderer{location: "s3://contracts/contracts/contract-xx.pdf"}
	outbox := &fakeOutbox{}
	svc := newTestService(store, renderer, outbox)

	resp, err := svc.CreateContract(context.Background(), apptesting.MockContractRequest())
	if err != nil {
		t.Fatalf("CreateContract() error = %v", err)
	}

	if !contractIDPattern.MatchString(resp.ContractID) {
		t.Errorf("ContractID = %q, want match for %s", resp.ContractID, contractIDPattern)
	}
	if resp.ContractURL != renderer.location {
		t.Errorf("ContractURL = %q, want %q", resp.ContractURL, renderer.location)
	}
	if resp.ContractStatus != models.ContractStatusSigned {
		t.Errorf("ContractStatus = %q, want %q", resp.ContractStatus, models.ContractStatusSigned)
	}
	if resp.SignedAt.IsZero() {
		t.Error("SignedAt is zero")
	}

	if len(store.saved) != 2 {
		t.Fatalf("contract saved %d times, want 2 (initial persist plus location update)", len(store.saved))
	}
	first, second := store.saved[0], store.saved[1]
	if first.PDFStorageLocation != nil {
		t.Error("initial save already carries a document location")
	}
	if first.CreatedAt.IsZero() {
		t.Error("initial save has zero CreatedAt")
	}
	if first.UpdatedAt != nil {
		t.Error("initial save already carries UpdatedAt")
	}
	if second.PDFStorageLocation == nil || *second.PDFStorageLocation != renderer.location {
		t.Errorf("final save location = %v, want %q", second.PDFStorageLocation, renderer.location)
	}
	if second.UpdatedAt == nil {
		t.Error("final save has no UpdatedAt")
	}

	if len(outbox.enqueued) != 1 {
		t.Fatalf("enqueued %d outbox messages, want 1", len(outbox.enqueued))
	}
	msg := outbox.enqueued[0]
	if msg.Topic != "contract-events" {
		t.Errorf("outbox topic = %q, want %q", msg.Topic, "contract-events")
	}
	if msg.Key != resp.ContractID {
		t.Errorf("outbox key = %q, want %q", msg.Key, resp.ContractID)
	}

	var event models.ContractCreatedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		t.Fatalf("outbox payload is not a valid event: %v", err)
	}
	if event.EventType != models.EventTypeContractCreated {
		t.Errorf("event type = %q, want %q", event.EventType, models.EventTypeContractCreated)
	}
	if event.Data.ContractID != resp.ContractID {
		t.Errorf("event contract ID = %q, want %q", event.Data.ContractID, resp.ContractID)
	}
	if event.Data.ContractPDFLocation == nil || *event.Data.ContractPDFLocation != renderer.location {
		t.Errorf("event location = %v, want %q", event.Data.ContractPDFLocation, renderer.location)
	}
}

func TestCreateContract_Validation(t *testing.T) {
	long := strings.Repeat("x", 101)

	tests := []struct {
		name    string
		mutate  func(*models.ContractRequest)
		message string
	}{
		{"blank purchase request id", func(r *models.ContractRequest) { r.PurchaseRequestID = "  " }, "Purchase request ID is required"},
		{"long purchase request id", func(r *models.ContractRequest) { r.PurchaseRequestID = long }, "Purchase request ID must not exceed 100 characters"},
		{"blank deal id", func(r *models.ContractRequest) { r.DealID = "" }, "Deal ID is required"},
		{"long deal id", func(r *models.ContractRequest) { r.DealID = long }, "Deal ID must not exceed 100 characters"},
		{"missing deal data", func(r *models.ContractRequest) { r.DealData = nil }, "Deal data is required"},
		{"missing customer", func(r *models.ContractRequest) { r.DealData.Customer = nil }, "Customer details are required"},
		{"missing finance details", func(r *models.ContractRequest) { r.DealData.CustomerFinanceDetails = nil }, "Customer finance details are required"},
		{"missing mass orders", func(r *models.ContractRequest) { r.DealData.MassOrders = nil }, "Mass orders are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestService(store, &fakeRenderer{}, &fakeOutbox{})

			req := apptesting.MockContractRequest()
			tt.mutate(req)

			_, err := svc.CreateContract(context.Background(), req)

			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("CreateContract() error = %v, want *ValidationError", err)
			}
			if valErr.Message != tt.message {
				t.Errorf("message = %q, want %q", valErr.Message, tt.message)
			}
			if len(store.saved) != 0 {
				t.Error("invalid request reached the store")
			}
		})
	}
}

func TestCreateContract_NilRequest(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeRenderer{}, &fakeOutbox{})

	_, err := svc.CreateContract(context.Background(), nil)

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("CreateContract() error = %v, want *ValidationError", err)
	}
}

func TestCreateContract_DuplicatePreCheck(t *testing.T) {
	store := newFakeStore()
	store.existsResult = true
	renderer := &fakeRenderer{location: "somewhere.pdf"}
	svc := newTestService(store, renderer, &fakeOutbox{})

	req := apptesting.MockContractRequest()
	_, err := svc.CreateContract(context.Background(), req)

	var dup *DuplicateContractError
	if !errors.As(err, &dup) {
		t.Fatalf("CreateContract() error = %v, want *DuplicateContractError", err)
	}
	if dup.PurchaseRequestID != req.PurchaseRequestID {
		t.Errorf("PurchaseRequestID = %q, want %q", dup.PurchaseRequestID, req.PurchaseRequestID)
	}
	if renderer.calls != 0 {
		t.Error("duplicate request reached the renderer")
	}
}

func TestCreateContract_DuplicateOnSaveConflict(t *testing.T) {
	store := newFakeStore()
	store.saveErr = gorm.ErrDuplicatedKey
	svc := newTestService(store, &fakeRenderer{location: "somewhere.pdf"}, &fakeOutbox{})

	_, err := svc.CreateContract(context.Background(), apptesting.MockContractRequest())

	var dup *DuplicateContractError
	if !errors.As(err, &dup) {
		t.Fatalf("CreateContract() error = %v, want *DuplicateContractError on unique index conflict", err)
	}
}

func TestCreateContract_RenderFailureLeavesRow(t *testing.T) {
	store := newFakeStore()
	renderErr := errors.New("rendering engine failed")
	svc := newTestService(store, &fakeRenderer{err: renderErr}, &fakeOutbox{})

	_, err := svc.CreateContract(context.Background(), apptesting.MockContractRequest())

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("CreateContract() error = %v, want *GenerationError", err)
	}
	if !errors.Is(err, renderErr) {
		t.Errorf("error chain does not contain the renderer failure: %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("contract saved %d times, want 1", len(store.saved))
	}
	if store.saved[0].PDFStorageLocation != nil {
		t.Error("failed render left a document location behind")
	}
}

func TestCreateContract_OutboxFailureFailsRequest(t *testing.T) {
	store := newFakeStore()
	outbox := &fakeOutbox{err: errors.New("outbox insert failed")}
	svc := newTestService(store, &fakeRenderer{location: "somewhere.pdf"}, outbox)

	_, err := svc.CreateContract(context.Background(), apptesting.MockContractRequest())

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("CreateContract() error = %v, want *GenerationError", err)
	}
}

func TestCreateContract_DedupCheckFailure(t *testing.T) {
	store := newFakeStore()
	store.existsErr = errors.New("database down")
	svc := newTestService(store, &fakeRenderer{}, &fakeOutbox{})

	_, err := svc.CreateContract(context.Background(), apptesting.MockContractRequest())

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("CreateContract() error = %v, want *GenerationError", err)
	}
}

func TestGetContract(t *testing.T) {
	store := newFakeStore()
	contract := apptesting.MockContract()
	location := "s3://contracts/contracts/contract-ab12cd34.pdf"
	now := time.Now()
	contract.PDFStorageLocation = &location
	contract.UpdatedAt = &now
	store.contracts[contract.ContractID] = contract

	svc := newTestService(store, &fakeRenderer{}, &fakeOutbox{})

	got, err := svc.GetContract(context.Background(), contract.ContractID)
	if err != nil {
		t.Fatalf("GetContract() error = %v", err)
	}
	if got.ContractID != contract.ContractID {
		t.Errorf("ContractID = %q, want %q", got.ContractID, contract.ContractID)
	}
	if got.PurchaseRequestID != contract.PurchaseRequestID {
		t.Errorf("PurchaseRequestID = %q, want %q", got.PurchaseRequestID, contract.PurchaseRequestID)
	}
	if got.PDFStorageLocation == nil || *got.PDFStorageLocation != location {
		t.Errorf("PDFStorageLocation = %v, want %q", got.PDFStorageLocation, location)
	}
}

func TestGetContract_NotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeRenderer{}, &fakeOutbox{})

	_, err := svc.GetContract(context.Background(), "CONTRACT-00000000")

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("GetContract() error = %v, want *NotFoundError", err)
	}
	if notFound.Message != "Contract not found" {
		t.Errorf("message = %q, want %q", notFound.Message, "Contract not found")
	}
}

func TestGetContractPDFLocation(t *testing.T) {
	store := newFakeStore()
	contract := apptesting.MockContract()
	location := "/var/contracts/contract-ab12cd34.pdf"
	contract.PDFStorageLocation = &location
	store.contracts[contract.ContractID] = contract

	svc := newTestService(store, &fakeRenderer{}, &fakeOutbox{})

	got, err := svc.GetContractPDFLocation(context.Background(), contract.ContractID)
	if err != nil {
		t.Fatalf("GetContractPDFLocation() error = %v", err)
	}
	if got != location {
		t.Errorf("location = %q, want %q", got, location)
	}
}

func TestGetContractPDFLocation_Missing(t *testing.T) {
	store := newFakeStore()
	contract := apptesting.MockContract()
	store.contracts[contract.ContractID] = contract
	svc := newTestService(store, &fakeRenderer{}, &fakeOutbox{})

	tests := []struct {
		name       string
		contractID string
		message    string
	}{
		{"unknown contract", "CONTRACT-00000000", "Contract not found"},
		{"contract without document", contract.ContractID, "PDF not found for contract"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetContractPDFLocation(context.Background(), tt.contractID)

			var notFound *NotFoundError
			if !errors.As(err, &notFound) {
				t.Fatalf("GetContractPDFLocation() error = %v, want *NotFoundError", err)
			}
			if notFound.Message != tt.message {
				t.Errorf("message = %q, want %q", notFound.Message, tt.message)
			}
		})
	}
}

type stubRenderer struct{}

func (stubRenderer) GenerateDocument(ctx context.Context, contract *models.Contract) (string, error) {
	return "/var/contracts/" + strings.ToLower(contract.ContractID) + ".pdf", nil
}

func openWorkflowDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "contracts.db") + "?_busy_timeout=5000"
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := gormDB.AutoMigrate(&models.Contract{}, &models.OutboxMessage{}); err != nil {
		t.Fatalf("migrating test schema: %v", err)
	}
	return gormDB
}

func TestCreateContract_ConcurrentRequestsYieldOneWinner(t *testing.T) {
	gormDB := openWorkflowDB(t)
	store := stores.NewContractStore(gormDB)
	outbox := stores.NewOutboxStore(gormDB)
	svc := NewContractService(store, stubRenderer{}, outbox, audit.NewLogger(), "contract-events")

	type outcome struct {
		resp *models.ContractResponse
		err  error
	}
	start := make(chan struct{})
	results := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			resp, err := svc.CreateContract(context.Background(), apptesting.MockContractRequest())
			results <- outcome{resp, err}
		}()
	}
	close(start)

	var created, duplicated int
	for i := 0; i < 2; i++ {
		out := <-results
		if out.err == nil {
			created++
			if out.resp.ContractStatus != models.ContractStatusSigned {
				t.Errorf("winner status = %q, want %q", out.resp.ContractStatus, models.ContractStatusSigned)
			}
			continue
		}
		var dup *DuplicateContractError
		if !errors.As(out.err, &dup) {
			t.Fatalf("loser error = %v, want *DuplicateContractError", out.err)
		}
		duplicated++
	}
	if created != 1 || duplicated != 1 {
		t.Fatalf("outcomes = %d created, %d duplicates, want exactly one of each", created, duplicated)
	}

	var rows int64
	if err := gormDB.Model(&models.Contract{}).
		Where("purchase_request_id = ?", "PR-2024-001").
		Count(&rows).Error; err != nil {
		t.Fatalf("counting contracts: %v", err)
	}
	if rows != 1 {
		t.Errorf("stored %d contracts for the purchase request, want 1", rows)
	}

	pending, err := outbox.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("outbox holds %d pending messages, want 1", len(pending))
	}
}

func TestGenerateContractID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateContractID()
		if !contractIDPattern.MatchString(id) {
			t.Fatalf("generateContractID() = %q, want match for %s", id, contractIDPattern)
		}
		if seen[id] {
			t.Fatalf("generateContractID() repeated %q", id)
		}
		seen[id] = true
	}
}
