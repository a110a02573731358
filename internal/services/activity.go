package services

import (
	"context"
	"errors"
	"time"

	"mtrbac/internal/database"
	"mtrbac/internal/models"
	"mtrbac/pkg/logger"
	"mtrbac/pkg/queue"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityQueueName Redis 中的活动日志队列
const ActivityQueueName = "activities"

// RequestMeta 每个请求只解析一次的元数据
type RequestMeta struct {
	IPAddress string            `json:"ipAddress"`
	Endpoint  string            `json:"endpoint"`
	Method    string            `json:"method"`
	Device    models.DeviceInfo `json:"deviceInfo"`
}

// ActivityEntry 一条待记录的操作
type ActivityEntry struct {
	UserID    string              `json:"userId"`
	TenantKey string              `json:"tenantKey,omitempty"`
	Type      models.ActivityType `json:"activityType"`
	Details   string              `json:"details"`
	Meta      RequestMeta         `json:"meta"`
	Failed    bool                `json:"failed,omitempty"`
	At        time.Time           `json:"at"`
}

// ActivityRecorder 记录操作日志；启用 Redis 时先入队由后台写库，否则直接写主库
type ActivityRecorder struct {
	db    *gorm.DB
	seq   *database.Sequencer
	queue *queue.RedisQueue
	now   func() time.Time
}

// NewActivityRecorder q 为 nil 时同步写库
func NewActivityRecorder(db *gorm.DB, seq *database.Sequencer, q *queue.RedisQueue) *ActivityRecorder {
	return &ActivityRecorder{db: db, seq: seq, queue: q, now: time.Now}
}

// Record 失败只记日志，不影响请求结果
func (r *ActivityRecorder) Record(ctx context.Context, e ActivityEntry) {
	if r == nil {
		return
	}
	if e.At.IsZero() {
		e.At = r.now()
	}
	e.Type = e.Type.Normalize()

	ctx = context.WithoutCancel(ctx)
	if r.queue != nil {
		err := r.queue.Enqueue(ctx, ActivityQueueName, e)
		if err == nil {
			return
		}
		logger.GetLogger().Warnf("Failed to enqueue activity, writing directly: %v", err)
	}
	if err := r.Persist(ctx, e); err != nil {
		logger.GetLogger().WithField("activity", e.Type).Errorf("Failed to record activity: %v", err)
	}
}

// Persist 写入主库
func (r *ActivityRecorder) Persist(ctx context.Context, e ActivityEntry) error {
	n, err := r.seq.Next(ctx, "activity")
	if err != nil {
		return err
	}
	status := models.ActivitySuccess
	if e.Failed {
		status = models.ActivityFailed
	}
	row := &models.UserActivity{
		BaseModel:      models.BaseModel{ID: uint64(n)},
		ActivityID:     database.FormatID("activity", n),
		UserID:         e.UserID,
		TenantKey:      e.TenantKey,
		ActivityType:   e.Type.Normalize(),
		Details:        e.Details,
		IPAddress:      e.Meta.IPAddress,
		DeviceInfo:     datatypes.NewJSONType(e.Meta.Device),
		Endpoint:       e.Meta.Endpoint,
		Method:         e.Meta.Method,
		Timestamp:      e.At,
		ActivityStatus: status,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// ========== 后台写库 ==========

// ActivityWorker 从 Redis 队列取出活动日志写库
type ActivityWorker struct {
	recorder *ActivityRecorder
	queue    *queue.RedisQueue
	wait     time.Duration
}

func NewActivityWorker(recorder *ActivityRecorder, q *queue.RedisQueue) *ActivityWorker {
	return &ActivityWorker{recorder: recorder, queue: q, wait: 5 * time.Second}
}

// Run 阻塞运行直到 ctx 取消
func (w *ActivityWorker) Run(ctx context.Context) {
	appLogger := logger.GetLogger()
	appLogger.Info("Activity worker started")
	defer appLogger.Info("Activity worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}
		var e ActivityEntry
		err := w.queue.Dequeue(ctx, ActivityQueueName, w.wait, &e)
		switch {
		case err == nil:
			if err := w.recorder.Persist(ctx, e); err != nil {
				appLogger.WithField("activity", e.Type).Errorf("Failed to persist activity: %v", err)
			}
		case errors.Is(err, queue.ErrEmpty):
		case ctx.Err() != nil:
			return
		default:
			appLogger.Errorf("Failed to dequeue activity: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// ========== 过期清理 ==========

// ActivityRetention 定期删除超过保留期的活动日志
type ActivityRetention struct {
	db        *gorm.DB
	retention time.Duration
	now       func() time.Time
	cron      *cron.Cron
}

func NewActivityRetention(db *gorm.DB, retention time.Duration) *ActivityRetention {
	return &ActivityRetention{db: db, retention: retention, now: time.Now}
}

// Cleanup 删除早于保留期的记录，返回删除条数
func (r *ActivityRetention) Cleanup(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.retention)
	res := r.db.WithContext(ctx).Where("occurred_at < ?", cutoff).Delete(&models.UserActivity{})
	return res.RowsAffected, res.Error
}

// Start 按 cron 表达式启动清理任务
func (r *ActivityRetention) Start(schedule string) error {
	r.cron = cron.New()
	_, err := r.cron.AddFunc(schedule, func() {
		n, err := r.Cleanup(context.Background())
		if err != nil {
			logger.GetLogger().Errorf("Activity cleanup failed: %v", err)
			return
		}
		if n > 0 {
			logger.GetLogger().Infof("Removed %d expired activities", n)
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop 停止清理任务并等待正在执行的任务结束
func (r *ActivityRetention) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}
