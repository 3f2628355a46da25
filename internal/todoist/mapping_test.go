// internal/todoist/mapping_test.go
package todoist

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestParseDue(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)

	tests := []struct {
		name     string
		in       *Due
		wantDate civil.Date
		wantTime *time.Time
		wantErr  bool
	}{
		{
			name:     "all day",
			in:       &Due{Date: "2024-01-05", String: "Jan 5"},
			wantDate: civil.Date{Year: 2024, Month: 1, Day: 5},
		},
		{
			name:     "utc datetime",
			in:       &Due{Date: "2024-01-05", Datetime: "2024-01-05T12:00:00.000000Z"},
			wantDate: civil.Date{Year: 2024, Month: 1, Day: 5},
			wantTime: ptrTime(time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)),
		},
		{
			name:     "floating datetime",
			in:       &Due{Date: "2024-01-05", Datetime: "2024-01-05T09:30:00"},
			wantDate: civil.Date{Year: 2024, Month: 1, Day: 5},
			wantTime: ptrTime(time.Date(2024, 1, 5, 9, 30, 0, 0, berlin)),
		},
		{
			name:    "bad date",
			in:      &Due{Date: "tomorrow"},
			wantErr: true,
		},
		{
			name:    "bad datetime",
			in:      &Due{Date: "2024-01-05", Datetime: "noon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDue(tt.in, berlin)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Date != tt.wantDate {
				t.Errorf("Date = %v, want %v", got.Date, tt.wantDate)
			}
			switch {
			case tt.wantTime == nil && got.DateTime != nil:
				t.Errorf("DateTime = %v, want nil", got.DateTime)
			case tt.wantTime != nil && (got.DateTime == nil || !got.DateTime.Equal(*tt.wantTime)):
				t.Errorf("DateTime = %v, want %v", got.DateTime, tt.wantTime)
			}
		})
	}

	if got, err := ParseDue(nil, nil); got != nil || err != nil {
		t.Errorf("ParseDue(nil) = %v, %v; want nil, nil", got, err)
	}
}

func TestProjectToDomain(t *testing.T) {
	parent := "p1"
	p := Project{ID: "p2", Name: "Work", ParentID: &parent, ChildOrder: 3, IsArchived: true}.toDomain()

	if p.ID != "p2" || p.Name != "Work" || p.ChildOrder != 3 || !p.IsArchived {
		t.Errorf("toDomain() = %+v", p)
	}
	if p.ParentID == nil || *p.ParentID != "p1" {
		t.Errorf("ParentID = %v, want p1", p.ParentID)
	}

	empty := ""
	if got := (Project{ID: "p3", ParentID: &empty}).toDomain(); got.ParentID != nil {
		t.Errorf("empty parent should map to nil, got %v", *got.ParentID)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
