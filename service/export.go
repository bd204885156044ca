package service

import (
	"fmt"
	"io"
	"time"

	"github.com/BerniceZTT/outreach_crm/models"

	"github.com/xuri/excelize/v2"
)

// ExportSheetName 내보내기 시트 이름
const ExportSheetName = "고객목록"

// ExportHeaders 내보내기 열 순서
var ExportHeaders = []string{"이름", "회사", "사업자번호", "웹사이트", "이메일", "전화", "상태", "생성일", "수정일"}

const exportDateLayout = "2006. 1. 2."

// WriteCustomerWorkbook 고객 목록을 시트 하나짜리 xlsx 로 기록. 넘겨받은 순서 그대로 쓴다
func WriteCustomerWorkbook(w io.Writer, customers []models.Customer, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		return fmt.Errorf("시트 이름 설정 실패: %w", err)
	}

	header := make([]interface{}, len(ExportHeaders))
	for i, h := range ExportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return fmt.Errorf("헤더 기록 실패: %w", err)
	}

	for i, c := range customers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			c.Name,
			c.Company,
			c.BusinessNumber,
			c.Website,
			c.Email,
			c.Phone,
			string(c.Status),
			formatExportDate(c.CreatedAt, loc),
			formatExportDate(c.UpdatedAt, loc),
		}
		if err := f.SetSheetRow(ExportSheetName, cell, &row); err != nil {
			return fmt.Errorf("%d행 기록 실패: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("엑셀 파일 쓰기 실패: %w", err)
	}
	return nil
}

func formatExportDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(exportDateLayout)
}

// ExportScope 내보내기 범위 이름. 상태 탭이면 상태명이 붙는다
func ExportScope(status models.CustomerStatus) string {
	if status == "" {
		return "customers"
	}
	return string(status) + "_customers"
}

// ExportFilename {scope}_{YYYY-MM-DD}.xlsx
func ExportFilename(scope string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", scope, now.Format("2006-01-02"))
}
