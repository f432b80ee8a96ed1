package implementation

import (
	"context"
	"errors"
	"time"

	"docvault-be/internal/entity"
	"docvault-be/internal/mapper"
	"docvault-be/internal/model"
	"docvault-be/internal/repository/contract"
	"docvault-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DialogueSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DialogueSessionMapper
}

func NewDialogueSessionRepository(db *gorm.DB) contract.DialogueSessionRepository {
	return &DialogueSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewDialogueSessionMapper(),
	}
}

func (r *DialogueSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DialogueSessionRepositoryImpl) Create(ctx context.Context, session *entity.DialogueSession) error {
	m, err := r.mapper.ToModel(session)
	if err != nil {
		return err
	}
	// A stale expired row with the same conversation id may still exist.
	// Upsert keeps conversation_id unique without a read-then-write race.
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"party_id", "intent", "state", "slots", "data", "created_at", "updated_at", "expires_at",
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	e, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*session = *e
	return nil
}

func (r *DialogueSessionRepositoryImpl) Update(ctx context.Context, session *entity.DialogueSession) error {
	m, err := r.mapper.ToModel(session)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	e, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*session = *e
	return nil
}

func (r *DialogueSessionRepositoryImpl) DeleteByConversationId(ctx context.Context, conversationId string) error {
	return r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Delete(&model.DialogueSession{}).Error
}

func (r *DialogueSessionRepositoryImpl) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&model.DialogueSession{})
	return res.RowsAffected, res.Error
}

func (r *DialogueSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DialogueSession, error) {
	var m model.DialogueSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

type ConversationLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DialogueSessionMapper
}

func NewConversationLogRepository(db *gorm.DB) contract.ConversationLogRepository {
	return &ConversationLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewDialogueSessionMapper(),
	}
}

func (r *ConversationLogRepositoryImpl) Create(ctx context.Context, log *entity.ConversationLog) error {
	m, err := r.mapper.LogToModel(log)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	e, err := r.mapper.LogToEntity(m)
	if err != nil {
		return err
	}
	*log = *e
	return nil
}

func (r *ConversationLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationLog, error) {
	var models []*model.ConversationLog
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.ConversationLog, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.LogToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
