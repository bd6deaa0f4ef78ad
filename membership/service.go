package membership

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santosrp/clanhub/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service applies membership lifecycle transitions: registration, join
// request resolution, clan creation and deletion, role changes. Every
// multi-entity transition runs inside a single transaction so partial
// updates never become visible.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a membership Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// RegisterInput is a prospective member's application.
type RegisterInput struct {
	Name      string `json:"name" binding:"required"`
	DiscordID string `json:"discord_id"`
	Phone     string `json:"phone"`
	Age       int    `json:"age"`
	Bio       string `json:"bio"`
	Reason    string `json:"reason"`
	Avatar    string `json:"avatar"`
	ClanID    int64  `json:"clan_id" binding:"required"`
}

// Register creates a pending user together with a pending join request for
// the target clan. The user's clan_id stays unset until the request is
// approved.
func (s *Service) Register(in RegisterInput) (*model.User, *model.JoinRequest, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.ClanID == 0 {
		return nil, nil, fmt.Errorf("%w: target clan is required", ErrValidation)
	}

	var clan model.Clan
	if err := s.db.First(&clan, in.ClanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: clan %d", ErrNotFound, in.ClanID)
		}
		return nil, nil, err
	}

	user := &model.User{
		Name:   in.Name,
		Phone:  in.Phone,
		Age:    in.Age,
		Bio:    in.Bio,
		Reason: in.Reason,
		Avatar: in.Avatar,
		Role:   model.RoleMember,
		Status: model.StatusPending,
	}
	if in.DiscordID != "" {
		user.DiscordID = &in.DiscordID
	}
	request := &model.JoinRequest{
		ClanID:  in.ClanID,
		Status:  model.StatusPending,
		Message: in.Reason,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		request.UserID = user.ID
		return tx.Create(request).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("%w: discord account already registered", ErrValidation)
		}
		return nil, nil, err
	}

	s.logger.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("clan_id", in.ClanID))
	return user, request, nil
}

// ApproveJoinRequest resolves a pending request to accepted. As one unit it
// marks the request accepted, marks the applicant accepted and assigns them
// to the target clan. Admins approve for any clan, clan owners only for
// their own.
func (s *Service) ApproveJoinRequest(actor Actor, requestID int64) (*model.JoinRequest, error) {
	request, err := s.pendingRequest(requestID)
	if err != nil {
		return nil, err
	}
	if err := actor.CheckManageRequests(request.ClanID); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.JoinRequest{}).
			Where("id = ? AND status = ?", request.ID, model.StatusPending).
			Update("status", model.StatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: request %d", ErrNotFound, request.ID)
		}

		res = tx.Model(&model.User{}).
			Where("id = ?", request.UserID).
			Updates(map[string]interface{}{
				"status":  model.StatusAccepted,
				"clan_id": request.ClanID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: user %d", ErrNotFound, request.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = model.StatusAccepted
	s.logger.Info("join request approved",
		zap.Int64("request_id", request.ID),
		zap.Int64("user_id", request.UserID),
		zap.Int64("clan_id", request.ClanID),
		zap.Int64("actor_id", actor.ID))
	return request, nil
}

// RejectJoinRequest resolves a pending request to rejected with the given
// reason. The applicant's user record stays pending so they may reapply.
func (s *Service) RejectJoinRequest(actor Actor, requestID int64, message string) (*model.JoinRequest, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: rejection message is required", ErrValidation)
	}

	request, err := s.pendingRequest(requestID)
	if err != nil {
		return nil, err
	}
	if err := actor.CheckManageRequests(request.ClanID); err != nil {
		return nil, err
	}

	res := s.db.Model(&model.JoinRequest{}).
		Where("id = ? AND status = ?", request.ID, model.StatusPending).
		Updates(map[string]interface{}{
			"status":  model.StatusRejected,
			"message": message,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: request %d", ErrNotFound, request.ID)
	}

	request.Status = model.StatusRejected
	request.Message = message
	s.logger.Info("join request rejected",
		zap.Int64("request_id", request.ID),
		zap.Int64("actor_id", actor.ID))
	return request, nil
}

// CreateClanInput holds the fields for a new clan.
type CreateClanInput struct {
	Name        string `json:"name" binding:"required,min=2,max=64"`
	Description string `json:"description"`
	Banner      string `json:"banner"`
}

// CreateClan creates a clan owned by the actor and reassigns the actor to
// it with the clan_owner role. Both writes happen in one transaction; an
// orphaned clan or a stale owner clan_id must never be observable.
func (s *Service) CreateClan(actor Actor, in CreateClanInput) (*model.Clan, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	if !actor.CanCreateClan() {
		return nil, fmt.Errorf("%w: members cannot create clans", ErrForbidden)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: clan name is required", ErrValidation)
	}

	clan := &model.Clan{
		Name:        in.Name,
		Description: in.Description,
		Banner:      in.Banner,
		OwnerID:     &actor.ID,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(clan).Error; err != nil {
			return err
		}
		res := tx.Model(&model.User{}).
			Where("id = ?", actor.ID).
			Updates(map[string]interface{}{
				"role":    model.RoleClanOwner,
				"clan_id": clan.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: user %d", ErrNotFound, actor.ID)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: clan name already taken", ErrValidation)
		}
		return nil, err
	}

	s.logger.Info("clan created",
		zap.Int64("clan_id", clan.ID),
		zap.Int64("owner_id", actor.ID))
	return clan, nil
}

// DeleteClan removes a clan and detaches every affiliated user as one unit.
// Non-admin members (including the owner) fall back to the member role;
// admins only lose the clan affiliation, never the admin role.
func (s *Service) DeleteClan(actor Actor, clanID int64) error {
	if err := actor.CheckAdmin(); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Clan{}, clanID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: clan %d", ErrNotFound, clanID)
		}

		if err := tx.Model(&model.User{}).
			Where("clan_id = ? AND role <> ?", clanID, model.RoleAdmin).
			Updates(map[string]interface{}{
				"clan_id": nil,
				"role":    model.RoleMember,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).
			Where("clan_id = ? AND role = ?", clanID, model.RoleAdmin).
			Update("clan_id", nil).Error
	})
	if err != nil {
		return err
	}

	s.logger.Info("clan deleted",
		zap.Int64("clan_id", clanID),
		zap.Int64("actor_id", actor.ID))
	return nil
}

// ChangeRole sets a user's role. Admin only.
func (s *Service) ChangeRole(actor Actor, userID int64, role string) (*model.User, error) {
	if err := actor.CheckAdmin(); err != nil {
		return nil, err
	}
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	var user model.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, err
	}

	if err := s.db.Model(&user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	s.logger.Info("role changed",
		zap.Int64("user_id", userID),
		zap.String("role", role),
		zap.Int64("actor_id", actor.ID))
	return &user, nil
}

// RequestWithUser pairs a join request with a snapshot of its applicant.
type RequestWithUser struct {
	model.JoinRequest
	User *model.User `json:"user,omitempty"`
}

// PendingRequests lists the pending join requests visible to the actor:
// all of them for admins, the owner's clan for clan owners, none otherwise.
func (s *Service) PendingRequests(actor Actor) ([]RequestWithUser, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}

	q := s.db.Where("status = ?", model.StatusPending).Order("id")
	switch {
	case actor.Role == model.RoleAdmin:
		// all clans
	case actor.Role == model.RoleClanOwner && actor.ClanID != nil:
		q = q.Where("clan_id = ?", *actor.ClanID)
	default:
		return []RequestWithUser{}, nil
	}

	var requests []model.JoinRequest
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}

	result := make([]RequestWithUser, 0, len(requests))
	for _, req := range requests {
		entry := RequestWithUser{JoinRequest: req}
		var user model.User
		if err := s.db.First(&user, req.UserID).Error; err == nil {
			entry.User = &user
		}
		result = append(result, entry)
	}
	return result, nil
}

// pendingRequest loads a request and verifies it has not been resolved yet.
func (s *Service) pendingRequest(requestID int64) (*model.JoinRequest, error) {
	var request model.JoinRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: request %d", ErrNotFound, requestID)
		}
		return nil, err
	}
	if request.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: request %d already %s", ErrValidation, request.ID, request.Status)
	}
	return &request, nil
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
