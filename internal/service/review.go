package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartgate-service/internal/model"
	"smartgate-service/internal/passes"
	"smartgate-service/internal/store"
	"smartgate-service/internal/utils"
)

// issuePass creates an unpaid pass from a plan and notifies the owner.
// Shared by admin pass creation and application approval.
func issuePass(ctx context.Context, tx store.Store, userID string, role model.Role, planType string, startsAt, now time.Time) (*model.Pass, error) {
	if _, err := tx.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	from, to, plan, err := passes.ValidityWindow(planType, startsAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	pass := &model.Pass{
		UserID:    userID,
		Role:      role,
		PlanType:  plan.PlanType,
		ValidFrom: from,
		ValidTo:   to,
		PriceRM:   plan.PriceRM,
		IsPaid:    false,
	}
	if err := tx.SavePass(ctx, pass); err != nil {
		return nil, err
	}
	message := fmt.Sprintf("%s pass issued. Pay RM %.2f via wallet.", plan.Label, plan.PriceRM)
	if err := notify(ctx, tx, userID, message, now); err != nil {
		return nil, err
	}
	return pass, nil
}

// submitPassApplication normalizes and deduplicates the requested plates,
// stores the pending application and notifies the applicant.
func submitPassApplication(ctx context.Context, tx store.Store, userID string, role model.Role, planType string, vehicles []string, now time.Time) (*model.PassApplication, error) {
	normalized := make([]string, 0, len(vehicles))
	seen := make(map[string]bool, len(vehicles))
	for _, plate := range vehicles {
		cleaned := utils.NormalizePlate(plate)
		if cleaned == "" || seen[cleaned] {
			continue
		}
		normalized = append(normalized, cleaned)
		seen[cleaned] = true
	}
	application := &model.PassApplication{
		UserID:      userID,
		Role:        role,
		PlanType:    planType,
		Vehicles:    normalized,
		Status:      model.ReviewStatusPending,
		SubmittedAt: now,
	}
	if err := tx.SavePassApplication(ctx, application); err != nil {
		return nil, err
	}
	if err := notify(ctx, tx, userID, "Pass application submitted. Await admin review.", now); err != nil {
		return nil, err
	}
	return application, nil
}

type ReviewService struct {
	store store.Store
	now   func() time.Time
}

func NewReviewService(st store.Store) *ReviewService {
	return &ReviewService{
		store: st,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReviewService) ListPassApplications(ctx context.Context, status model.ReviewStatus) ([]model.PassApplication, error) {
	return s.store.ListPassApplications(ctx, status)
}

type ReviewDecision struct {
	Status     model.ReviewStatus
	ReviewerID string
	Note       string
}

// ReviewPassApplication moves a pending application to approved or
// rejected. Approval issues exactly one pass; reviewing a settled
// application returns it unchanged.
func (s *ReviewService) ReviewPassApplication(ctx context.Context, applicationID string, decision ReviewDecision) (*model.PassApplication, error) {
	if !decision.Status.ValidDecision() {
		return nil, fmt.Errorf("%w: decision must be approved or rejected", ErrInvalidInput)
	}
	var application *model.PassApplication
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		application, err = tx.GetPassApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if application.Status != model.ReviewStatusPending {
			return nil
		}
		now := s.now()
		application.Status = decision.Status
		application.ReviewerID = decision.ReviewerID
		application.ReviewNote = decision.Note
		application.ReviewedAt = &now
		if err := tx.SavePassApplication(ctx, application); err != nil {
			return err
		}
		if decision.Status == model.ReviewStatusApproved {
			_, err := issuePass(ctx, tx, application.UserID, application.Role, application.PlanType, now, now)
			return err
		}
		message := decision.Note
		if message == "" {
			message = "Pass application rejected"
		}
		return notify(ctx, tx, application.UserID, message, now)
	})
	if err != nil {
		return nil, err
	}
	return application, nil
}

type RoleUpgradeInput struct {
	TargetRole  model.Role
	Reason      string
	Attachments []string
}

// SubmitRoleUpgrade files a pending upgrade request and parks the profile
// back in pending until review.
func (s *ReviewService) SubmitRoleUpgrade(ctx context.Context, userID string, input RoleUpgradeInput) (*model.RoleUpgradeRequest, error) {
	if !input.TargetRole.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.TargetRole)
	}
	var request *model.RoleUpgradeRequest
	err := s.store.Transact(ctx, func(tx store.Store) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		now := s.now()
		request = &model.RoleUpgradeRequest{
			UserID:      userID,
			TargetRole:  input.TargetRole,
			Reason:      input.Reason,
			Attachments: input.Attachments,
			Status:      model.ReviewStatusPending,
			SubmittedAt: now,
		}
		if err := tx.SaveRoleUpgrade(ctx, request); err != nil {
			return err
		}
		profile, err := ensureProfile(ctx, tx, userID, model.ProfileStatusPending, now)
		if err != nil {
			return err
		}
		profile.Status = model.ProfileStatusPending
		profile.UpdatedAt = now
		return tx.SaveProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *ReviewService) ListRoleUpgrades(ctx context.Context, status model.ReviewStatus) ([]model.RoleUpgradeRequest, error) {
	return s.store.ListRoleUpgrades(ctx, status)
}

// ReviewRoleUpgrade settles a pending upgrade request. Approval promotes
// the user and rewrites the role on every pass the user holds; both
// outcomes notify the requester. Settled requests are returned unchanged.
func (s *ReviewService) ReviewRoleUpgrade(ctx context.Context, requestID string, decision ReviewDecision) (*model.RoleUpgradeRequest, error) {
	if !decision.Status.ValidDecision() {
		return nil, fmt.Errorf("%w: decision must be approved or rejected", ErrInvalidInput)
	}
	var request *model.RoleUpgradeRequest
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		request, err = tx.GetRoleUpgrade(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != model.ReviewStatusPending {
			return nil
		}
		now := s.now()
		request.Status = decision.Status
		request.ReviewerID = decision.ReviewerID
		request.ReviewedAt = &now
		if err := tx.SaveRoleUpgrade(ctx, request); err != nil {
			return err
		}
		if decision.Status == model.ReviewStatusApproved {
			user, err := tx.GetUser(ctx, request.UserID)
			if err != nil {
				return err
			}
			user.Role = request.TargetRole
			if err := tx.SaveUser(ctx, user); err != nil {
				return err
			}
			userPasses, err := tx.ListPassesByUser(ctx, request.UserID)
			if err != nil {
				return err
			}
			for idx := range userPasses {
				userPasses[idx].Role = request.TargetRole
				if err := tx.SavePass(ctx, &userPasses[idx]); err != nil {
					return err
				}
			}
		}
		message := decision.Note
		if message == "" {
			message = fmt.Sprintf("Role upgrade request %s %s", request.TargetRole, strings.ToUpper(string(decision.Status)))
		}
		return notify(ctx, tx, request.UserID, message, now)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}
