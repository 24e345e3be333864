package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/zerotrust-ops/config-management/internal/model"
	"github.com/zerotrust-ops/config-management/internal/service"
)

// SyncWorker periodically imports every active tenant so the local cache
// tracks the remote configuration without operator action. Tenants run
// concurrently up to maxConcurrency, serialized per tenant through the
// shared locker so a scheduled import never overlaps a manual one.
type SyncWorker struct {
	importer       *service.ImportService
	tenants        *service.TenantService
	locker         *service.TenantLocker
	products       []string
	syncInterval   time.Duration
	maxConcurrency int
	sem            chan struct{}
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
}

func NewSyncWorker(
	importer *service.ImportService,
	tenants *service.TenantService,
	locker *service.TenantLocker,
	products []string,
	syncInterval time.Duration,
	maxConcurrency int,
) *SyncWorker {
	if syncInterval <= 0 {
		syncInterval = time.Hour
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &SyncWorker{
		importer:       importer,
		tenants:        tenants,
		locker:         locker,
		products:       products,
		syncInterval:   syncInterval,
		maxConcurrency: maxConcurrency,
		sem:            make(chan struct{}, maxConcurrency),
		ctx:            ctx,
		cancel:         cancel,
	}
}

func (w *SyncWorker) Start() {
	log.Println("starting scheduled sync worker")

	w.syncAllTenants()

	w.wg.Add(1)
	go w.scheduler()
}

func (w *SyncWorker) Stop() {
	log.Println("stopping scheduled sync worker")
	w.cancel()
	w.wg.Wait()
}

func (w *SyncWorker) scheduler() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.syncAllTenants()
		}
	}
}

func (w *SyncWorker) syncAllTenants() {
	tenants, err := w.tenants.ListActive()
	if err != nil {
		log.Printf("sync worker: failed to list tenants: %v", err)
		return
	}

	var runs sync.WaitGroup
	for _, tenant := range tenants {
		select {
		case <-w.ctx.Done():
			runs.Wait()
			return
		case w.sem <- struct{}{}:
		}

		runs.Add(1)
		go func(tenant *model.Tenant) {
			defer runs.Done()
			defer func() { <-w.sem }()
			w.syncTenant(tenant)
		}(tenant)
	}
	runs.Wait()
}

func (w *SyncWorker) syncTenant(tenant *model.Tenant) {
	unlock, ok := w.locker.TryLock(tenant.ID)
	if !ok {
		log.Printf("sync worker: tenant %s busy, skipping this cycle", tenant.Name)
		return
	}
	defer unlock()

	for _, product := range w.products {
		if w.ctx.Err() != nil {
			return
		}
		syncLog, err := w.importer.Run(w.ctx, tenant.ID, product, service.ImportOptions{})
		if err != nil {
			log.Printf("sync worker: import %s/%s failed to start: %v", tenant.Name, product, err)
			continue
		}
		log.Printf("sync worker: %s/%s finished with status %s (%d synced, %d updated, %d deleted)",
			tenant.Name, product, syncLog.Status,
			syncLog.ResourcesSynced, syncLog.ResourcesUpdated, syncLog.ResourcesDeleted)
	}
}
