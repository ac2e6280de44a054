package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitor-pass-service/internal/domain/models"
)

func TestDateFormat(t *testing.T) {
	valid := []string{"2024-01-01", "2024-12-31", "2024-02-31", "1999-09-09"}
	invalid := []string{"2024-13-01", "2024-00-10", "2024-01-00", "2024-01-32", "24-01-01", "2024/01/01", "2024-1-01", ""}

	for _, v := range valid {
		assert.True(t, IsValidDate(v), v)
	}
	for _, v := range invalid {
		assert.False(t, IsValidDate(v), v)
	}
}

func TestTimeFormat(t *testing.T) {
	valid := []string{"00:00", "9:05", "09:05", "23:59", "19:30"}
	invalid := []string{"24:00", "12:60", "1230", "12:5", "", "-1:00"}

	for _, v := range valid {
		assert.True(t, IsValidTime(v), v)
	}
	for _, v := range invalid {
		assert.False(t, IsValidTime(v), v)
	}
}

func TestCreateInputValidate(t *testing.T) {
	base := CreateAccessPassInput{VisitorName: "Ana", AccessMethod: "pin"}

	cases := []struct {
		name    string
		mutate  func(in *CreateAccessPassInput)
		wantErr string
		want    models.PassValidity
	}{
		{
			name:    "missing visitor",
			mutate:  func(in *CreateAccessPassInput) { in.VisitorName = " "; in.AccessType = "usage-limit"; in.UsageLimit = intPtr(1) },
			wantErr: "缺少必填字段",
		},
		{
			name:    "missing method",
			mutate:  func(in *CreateAccessPassInput) { in.AccessMethod = ""; in.AccessType = "usage-limit"; in.UsageLimit = intPtr(1) },
			wantErr: "缺少必填字段",
		},
		{
			name:    "time-bound missing fields",
			mutate:  func(in *CreateAccessPassInput) { in.AccessType = "time-bound"; in.Date = "2024-05-01" },
			wantErr: "缺少时段通行的日期或时间",
		},
		{
			name: "time-bound bad date",
			mutate: func(in *CreateAccessPassInput) {
				in.AccessType = "time-bound"
				in.Date, in.TimeFrom, in.TimeTo = "2024-13-01", "09:00", "10:00"
			},
			wantErr: "日期格式无效，请使用 YYYY-MM-DD",
		},
		{
			name: "time-bound bad time",
			mutate: func(in *CreateAccessPassInput) {
				in.AccessType = "time-bound"
				in.Date, in.TimeFrom, in.TimeTo = "2024-05-01", "09:00", "24:00"
			},
			wantErr: "时间格式无效，请使用 HH:mm",
		},
		{
			name: "time-bound ok",
			mutate: func(in *CreateAccessPassInput) {
				in.AccessType = "time-bound"
				in.Date, in.TimeFrom, in.TimeTo = "2024-05-01", "9:00", "10:00"
			},
			want: models.TimeBoundValidity{Date: "2024-05-01", TimeFrom: "9:00", TimeTo: "10:00"},
		},
		{
			name:    "date-range missing",
			mutate:  func(in *CreateAccessPassInput) { in.AccessType = "date-range"; in.DateFrom = "2024-05-01" },
			wantErr: "缺少日期区间的起止日期",
		},
		{
			name:    "date-range bad format",
			mutate:  func(in *CreateAccessPassInput) { in.AccessType = "date-range"; in.DateFrom, in.DateTo = "2024-05-01", "05/03/2024" },
			wantErr: "日期格式无效，请使用 YYYY-MM-DD",
		},
		{
			name:   "date-range ok",
			mutate: func(in *CreateAccessPassInput) { in.AccessType = "date-range"; in.DateFrom, in.DateTo = "2024-05-01", "2024-05-03" },
			want:   models.DateRangeValidity{DateFrom: "2024-05-01", DateTo: "2024-05-03"},
		},
		{
			name:    "usage-limit zero",
			mutate:  func(in *CreateAccessPassInput) { in.AccessType = "usage-limit"; in.UsageLimit = intPtr(0) },
			wantErr: "使用次数限制无效",
		},
		{
			name:    "usage-limit missing",
			mutate:  func(in *CreateAccessPassInput) { in.AccessType = "usage-limit" },
			wantErr: "使用次数限制无效",
		},
		{
			name:   "usage-limit ok",
			mutate: func(in *CreateAccessPassInput) { in.AccessType = "usage-limit"; in.UsageLimit = intPtr(2) },
			want:   models.UsageLimitValidity{Limit: 2},
		},
		{
			name:    "unknown type",
			mutate:  func(in *CreateAccessPassInput) { in.AccessType = "weekly" },
			wantErr: "不支持的通行类型",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			got, err := in.Validate()
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				assert.Equal(t, tc.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReportWindowValidate(t *testing.T) {
	assert.Error(t, ReportWindowInput{Date: "2024-05-01", TimeFrom: "09:00"}.Validate())
	assert.Error(t, ReportWindowInput{Date: "2024-5-01", TimeFrom: "09:00", TimeTo: "10:00"}.Validate())
	assert.Error(t, ReportWindowInput{Date: "2024-05-01", TimeFrom: "9", TimeTo: "10:00"}.Validate())
	assert.NoError(t, ReportWindowInput{Date: "2024-05-01", TimeFrom: "09:00", TimeTo: "10:00"}.Validate())
}
