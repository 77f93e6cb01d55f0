package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"reelworks/studio/internal/config"
	"reelworks/studio/internal/email"
	"reelworks/studio/internal/services"
)

// Task types.
const (
	TypeEmailDelivery       = "email:deliver"
	TypeInvoiceCheckOverdue = "billing:invoice:check_overdue"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// EmailTaskPayload carries one fully composed message. The body is
// composed at enqueue time so the worker only needs SMTP access.
type EmailTaskPayload struct {
	To         []string `json:"to"`
	Subject    string   `json:"subject"`
	RawMessage []byte   `json:"raw_message"`
}

// NewEmailDeliveryTask builds an email delivery task.
func NewEmailDeliveryTask(to []string, subject string, rawMessage []byte) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailTaskPayload{To: to, Subject: subject, RawMessage: rawMessage})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email task payload: %w", err)
	}
	return asynq.NewTask(TypeEmailDelivery, payload, asynq.Queue("default"), asynq.MaxRetry(5)), nil
}

// QueueingSender is an email.Sender that enqueues delivery as a
// background task instead of talking to SMTP in the request path.
type QueueingSender struct {
	client *asynq.Client
}

// NewQueueingSender creates a QueueingSender on top of an Asynq client.
func NewQueueingSender(client *asynq.Client) *QueueingSender {
	return &QueueingSender{client: client}
}

// Send enqueues the message for the background worker.
func (s *QueueingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	task, err := NewEmailDeliveryTask(to, subject, rawMessage)
	if err != nil {
		return err
	}
	info, err := s.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}
	log.Printf("Enqueued email task %s: To=%v, Subject=%q", info.ID, to, subject)
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies needed by task handlers.
type TaskProcessor struct {
	cfg               *config.Config
	emailSender       email.Sender
	escalationService services.IEscalationService
}

func NewTaskProcessor(cfg *config.Config, emailSender email.Sender, escalationService services.IEscalationService) *TaskProcessor {
	return &TaskProcessor{
		cfg:               cfg,
		emailSender:       emailSender,
		escalationService: escalationService,
	}
}

// SetupServer configures the Asynq server and handler mux. The caller
// runs the returned pair so shutdown stays in one place.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
	mux.HandleFunc(TypeInvoiceCheckOverdue, processor.HandleInvoiceCheckOverdueTask)

	return srv, mux
}

// SetupScheduler registers the periodic overdue scan. Invoice state is
// derived on read, so the scan only needs to run often enough to catch
// clients who never open their billing page.
func SetupScheduler(rdb *redis.Client) (*asynq.Scheduler, error) {
	schedulerOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	scheduler := asynq.NewScheduler(schedulerOpt, nil)

	task := asynq.NewTask(TypeInvoiceCheckOverdue, nil, asynq.Queue("low"))
	entryID, err := scheduler.Register("@every 1h", task)
	if err != nil {
		return nil, fmt.Errorf("failed to register overdue check schedule: %w", err)
	}
	log.Printf("Registered periodic overdue check (entry %s)", entryID)

	return scheduler, nil
}

// --- Task Handlers ---

// HandleEmailDeliveryTask delivers one composed message.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}

	if len(payload.To) == 0 {
		return fmt.Errorf("email task has no recipients: %w", asynq.SkipRetry)
	}

	if err := p.emailSender.Send(ctx, payload.To, payload.Subject, payload.RawMessage); err != nil {
		log.Printf("Email delivery failed for %v: %v", payload.To, err)
		return err
	}

	log.Printf("Email task processed: To=%v, Subject=%q", payload.To, payload.Subject)
	return nil
}

// HandleInvoiceCheckOverdueTask scans every client's invoices for
// overdue escalation.
func (p *TaskProcessor) HandleInvoiceCheckOverdueTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Starting overdue invoice check...")
	if err := p.escalationService.ScanAllClients(ctx); err != nil {
		log.Printf("Overdue invoice check failed: %v", err)
		return err
	}
	log.Println("Overdue invoice check finished.")
	return nil
}
