package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/concert-badges/internal/config"
	"github.com/concert-badges/internal/domain"
)

// Event actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// AttendanceEvent is the message format on the attendance topic. Mobile
// clients publish here, so two devices logging near-simultaneously for
// the same user arrive as independent events; the engine's per-user lock
// serializes the resulting evaluations.
type AttendanceEvent struct {
	Action       string                      `json:"action"`
	AttendanceID string                      `json:"attendance_id,omitempty"`
	Attendance   domain.LogAttendanceRequest `json:"attendance"`
}

// AttendanceHandler processes attendance log mutations
type AttendanceHandler interface {
	LogAttendance(ctx context.Context, req domain.LogAttendanceRequest) (*domain.Attendance, *domain.EvaluationResult, error)
	UpdateAttendance(ctx context.Context, id string, req domain.LogAttendanceRequest) (*domain.Attendance, *domain.EvaluationResult, error)
	DeleteAttendance(ctx context.Context, id string) (*domain.EvaluationResult, error)
}

// Consumer consumes attendance events from Kafka
type Consumer struct {
	config        *config.KafkaConfig
	handler       AttendanceHandler
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan bool
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, handler AttendanceHandler, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		config:        cfg,
		handler:       handler,
		logger:        logger,
		consumerGroup: consumerGroup,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan bool),
	}, nil
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start() error {
	c.logger.Info("starting Kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			handler := &consumerGroupHandler{
				consumer: c,
				ready:    c.ready,
			}

			if err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler); err != nil {
				if err == sarama.ErrClosedConsumerGroup {
					return
				}
				c.logger.Error("error from consumer", "error", err)
			}

			// Check if context was cancelled
			if c.ctx.Err() != nil {
				return
			}

			c.ready = make(chan bool)
		}
	}()

	// Wait until consumer is ready
	<-c.ready
	c.logger.Info("Kafka consumer ready")

	// Handle errors in separate goroutine
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping Kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
	ready    chan bool
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from a topic partition. Each event runs
// to completion (including the triggered evaluation) before its offset is
// marked, so a crash replays the event; the ledger's idempotent appends
// make the replay harmless.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil

		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			var event AttendanceEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				h.consumer.logger.Warn("failed to unmarshal message",
					"error", err,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				session.MarkMessage(message, "")
				continue
			}

			h.handleEvent(&event)
			session.MarkMessage(message, "")
		}
	}
}

func (h *consumerGroupHandler) handleEvent(event *AttendanceEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch event.Action {
	case ActionCreate:
		_, _, err = h.consumer.handler.LogAttendance(ctx, event.Attendance)
	case ActionUpdate:
		if event.AttendanceID == "" {
			h.consumer.logger.Warn("update event missing attendance_id")
			return
		}
		_, _, err = h.consumer.handler.UpdateAttendance(ctx, event.AttendanceID, event.Attendance)
	case ActionDelete:
		if event.AttendanceID == "" {
			h.consumer.logger.Warn("delete event missing attendance_id")
			return
		}
		_, err = h.consumer.handler.DeleteAttendance(ctx, event.AttendanceID)
	default:
		h.consumer.logger.Warn("unknown event action", "action", event.Action)
		return
	}

	if err != nil {
		h.consumer.logger.Error("failed to process attendance event",
			"action", event.Action,
			"user_id", event.Attendance.UserID,
			"error", err,
		)
	}
}
