package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/smsledger/internal/jobs"
)

func TestStore_SaveGetList(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		job := &jobs.ScanJob{JobID: id, Status: jobs.JobStatusPending, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob(%s) error = %v", id, err)
		}
	}
	if err := s.UpdateJobStatus(ctx, "b", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"c", "b", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusPending}, []string{"c", "a"}},
		{"limit", jobs.JobFilter{Limit: 1}, []string{"c"}},
		{"offset", jobs.JobFilter{Offset: 2}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 5}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs() error = %v", err)
			}
			ids := []string{}
			for _, j := range got {
				ids = append(ids, j.JobID)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ListJobs() = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("ListJobs() = %v, want %v", ids, tt.want)
					break
				}
			}
		})
	}

	got, err := s.GetJob(ctx, "b")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("GetJob() = %+v", got)
	}

	got.Status = jobs.JobStatusCompleted
	again, _ := s.GetJob(ctx, "b")
	if again.Status != jobs.JobStatusFailed {
		t.Error("GetJob should return a copy")
	}
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.SaveJob(ctx, &jobs.ScanJob{}); err == nil {
		t.Error("SaveJob without id should fail")
	}
	if _, err := s.GetJob(ctx, "missing"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("GetJob() error = %v, want ErrJobNotFound", err)
	}
	if err := s.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("UpdateJobStatus() error = %v, want ErrJobNotFound", err)
	}
}
