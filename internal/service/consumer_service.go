package service

import (
	"context"
	"encoding/json"
	"log"

	"docvault-be/internal/dto"
	"docvault-be/internal/entity"
	"docvault-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains completed-turn events into the conversation log
// table, off the request path.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.TurnCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal turn message: %v", err)
		msg.Ack() // malformed messages never succeed, do not retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	entry := &entity.ConversationLog{
		ConversationId: payload.ConversationId,
		PartyId:        payload.PartyId,
		Intent:         payload.Intent,
		State:          payload.State,
		InputKind:      payload.InputKind,
		InputText:      payload.InputText,
		ReplyText:      payload.ReplyText,
		Slots:          payload.Slots,
		CreatedAt:      payload.OccurredAt,
	}
	if err := uow.ConversationLogRepository().Create(ctx, entry); err != nil {
		log.Printf("[ERROR] Failed to persist conversation log for %s: %v", payload.ConversationId, err)
		msg.Nack()
		return
	}

	msg.Ack()
}
