package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockpilot/internal/apperror"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"
	"stockpilot/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type VendorRequest struct {
	Name         string `json:"vendor_name" validate:"required,max=255"`
	Phone        string `json:"phone" validate:"required,max=30"`
	Email        string `json:"email" validate:"required,email"`
	Address      string `json:"address"`
	GSTNumber    string `json:"gst_number" validate:"max=30"`
	PaymentTerms string `json:"payment_terms"`
}

type VendorService interface {
	Create(ctx context.Context, req *VendorRequest, actor model.Actor) (*model.Vendor, error)
	List(ctx context.Context) ([]model.Vendor, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	Update(ctx context.Context, id uuid.UUID, req *VendorRequest, actor model.Actor) (*model.Vendor, error)
	Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error
}

type vendorService struct {
	vendors repository.VendorRepository
	log     logger.Logger
}

func NewVendorService(vendors repository.VendorRepository, log logger.Logger) VendorService {
	return &vendorService{vendors: vendors, log: log.Named("vendor")}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parsePaymentTerms(value string) (model.PaymentTerms, error) {
	switch t := model.PaymentTerms(strings.TrimSpace(value)); t {
	case "":
		return model.PaymentNet30, nil
	case model.PaymentNet15, model.PaymentNet30, model.PaymentNet45, model.PaymentNet60, model.PaymentImmediate:
		return t, nil
	}
	return "", apperror.Validation("invalid payment terms",
		apperror.FieldError{Field: "payment_terms", Message: "must be one of Net 15, Net 30, Net 45, Net 60, Immediate"})
}

// ensureEmailFree rejects an email already used by a vendor other than self
func (s *vendorService) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.vendors.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check vendor email: %w", err)
	}
	if existing.ID != self {
		return apperror.Conflict("a vendor with email %s already exists", email)
	}
	return nil
}

func (s *vendorService) Create(ctx context.Context, req *VendorRequest, actor model.Actor) (*model.Vendor, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate(req); err != nil {
		return nil, err
	}
	terms, err := parsePaymentTerms(req.PaymentTerms)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, req.Email, uuid.Nil); err != nil {
		return nil, err
	}

	vendor := &model.Vendor{
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        req.Email,
		Address:      req.Address,
		GSTNumber:    strings.TrimSpace(req.GSTNumber),
		PaymentTerms: terms,
	}
	vendor.CreatedBy = actor.ID
	vendor.UpdatedBy = actor.ID
	if err := s.vendors.Create(ctx, vendor); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("a vendor with email %s already exists", req.Email)
		}
		return nil, fmt.Errorf("create vendor: %w", err)
	}
	s.log.Info("vendor created", zap.String("vendor", vendor.Name), zap.String("by", actor.Email))
	return vendor, nil
}

func (s *vendorService) List(ctx context.Context) ([]model.Vendor, error) {
	vendors, err := s.vendors.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	if vendors == nil {
		vendors = []model.Vendor{}
	}
	return vendors, nil
}

func (s *vendorService) Get(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	vendor, err := s.vendors.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "vendor %s not found", id)
	}
	return vendor, nil
}

func (s *vendorService) Update(ctx context.Context, id uuid.UUID, req *VendorRequest, actor model.Actor) (*model.Vendor, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate(req); err != nil {
		return nil, err
	}
	terms, err := parsePaymentTerms(req.PaymentTerms)
	if err != nil {
		return nil, err
	}
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, req.Email, vendor.ID); err != nil {
		return nil, err
	}

	vendor.Name = strings.TrimSpace(req.Name)
	vendor.Phone = strings.TrimSpace(req.Phone)
	vendor.Email = req.Email
	vendor.Address = req.Address
	vendor.GSTNumber = strings.TrimSpace(req.GSTNumber)
	vendor.PaymentTerms = terms
	vendor.UpdatedBy = actor.ID
	if err := s.vendors.Update(ctx, vendor); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("a vendor with email %s already exists", req.Email)
		}
		return nil, fmt.Errorf("update vendor: %w", err)
	}
	return vendor, nil
}

func (s *vendorService) Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.vendors.Delete(ctx, id, actor.ID); err != nil {
		return fmt.Errorf("delete vendor: %w", err)
	}
	s.log.Info("vendor deleted", zap.String("id", id.String()), zap.String("by", actor.Email))
	return nil
}
