package stores

import (
	"context"
	"errors"

	"github.com/autora/contract-service/models"
	"gorm.io/gorm"
)

// ContractStore persists contracts keyed by contract ID with secondary
// lookups by purchase request and deal. Lookup misses return (nil, nil);
// callers decide whether an absent record is an error.
type ContractStore struct {
	BaseStore
}

func NewContractStore(db *gorm.DB) *ContractStore {
	return &ContractStore{BaseStore: BaseStore{db: db}}
}

// Save upserts by contract ID. Timestamps are the caller's responsibility;
// the store never sets them. A violation of the purchase_request_id unique
// index surfaces as gorm.ErrDuplicatedKey.
func (s *ContractStore) Save(ctx context.Context, contract *models.Contract) error {
	return s.GetDB(ctx).Save(contract).Error
}

func (s *ContractStore) FindByID(ctx context.Context, contractID string) (*models.Contract, error) {
	var contract models.Contract
	err := s.GetDB(ctx).First(&contract, "contract_id = ?", contractID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindByPurchaseRequestID returns the oldest match so that anomalous
// duplicates in storage resolve deterministically.
func (s *ContractStore) FindByPurchaseRequestID(ctx context.Context, purchaseRequestID string) (*models.Contract, error) {
	var contract models.Contract
	err := s.GetDB(ctx).
		Where("purchase_request_id = ?", purchaseRequestID).
		Order("created_at ASC").
		First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (s *ContractStore) ExistsByPurchaseRequestID(ctx context.Context, purchaseRequestID string) (bool, error) {
	var count int64
	err := s.GetDB(ctx).Model(&models.Contract{}).
		Where("purchase_request_id = ?", purchaseRequestID).
		Count(&count).Error
	return count > 0, err
}

func (s *ContractStore) FindByDealID(ctx context.Context, dealID string) (*models.Contract, error) {
	var contract models.Contract
	err := s.GetDB(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at ASC").
		First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (s *ContractStore) ExistsByDealID(ctx context.Context, dealID string) (bool, error) {
	var count int64
	err := s.GetDB(ctx).Model(&models.Contract{}).
		Where("deal_id = ?", dealID).
		Count(&count).Error
	return count > 0, err
}

// FindWithPDFLocation returns any one contract that has a rendered document
// attached. Diagnostic helper, not part of the request workflow.
func (s *ContractStore) FindWithPDFLocation(ctx context.Context) (*models.Contract, error) {
	var contract models.Contract
	err := s.GetDB(ctx).
		Where("pdf_storage_location IS NOT NULL").
		Order("created_at ASC").
		First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// Delete removes a contract. Internal capability only; no HTTP operation is
// wired to it.
func (s *ContractStore) Delete(ctx context.Context, contractID string) error {
	return s.GetDB(ctx).Delete(&models.Contract{}, "contract_id = ?", contractID).Error
}
