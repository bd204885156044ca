package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WizardStep 콜 위저드 단계
type WizardStep string

const (
	StepConnection WizardStep = "connection"
	StepFollowUp   WizardStep = "followup"
	StepTemplate   WizardStep = "template"
	StepCallLog    WizardStep = "calllog"
	StepSubmitted  WizardStep = "submitted"
)

// ErrSubmitInFlight 제출이 진행 중일 때 다시 제출
var ErrSubmitInFlight = errors.New("이미 제출 중입니다")

// CallLogWriter 위저드가 통화 기록을 남기는 경계
type CallLogWriter interface {
	Create(ctx context.Context, owner primitive.ObjectID, input models.CallLogInput) (*models.CallLog, error)
	Discard(ctx context.Context, owner, id primitive.ObjectID) error
}

// CustomerStatusWriter 위저드가 고객 상태를 바꾸는 경계
type CustomerStatusWriter interface {
	UpdateStatus(ctx context.Context, owner, id primitive.ObjectID, status models.CustomerStatus) error
}

// CommitError 통화 기록은 만들었지만 고객 상태 변경이 실패한 경우.
// Compensated 면 만든 통화 기록을 되돌렸고, 아니면 통화 기록이 남아 있다
type CommitError struct {
	CallLogID   primitive.ObjectID
	Compensated bool
	Err         error
	DiscardErr  error
}

func (e *CommitError) Error() string {
	if e.Compensated {
		return fmt.Sprintf("고객 상태 변경 실패, 통화 기록 취소됨: %v", e.Err)
	}
	return fmt.Sprintf("고객 상태 변경 실패, 통화 기록(%s) 취소도 실패: %v / %v", e.CallLogID.Hex(), e.Err, e.DiscardErr)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// WizardForm 위저드가 모으는 입력
type WizardForm struct {
	ConnectionStatus models.ConnectionStatus `json:"connection_status"`
	FollowUpAction   models.FollowUpActions  `json:"follow_up_action"`
	SellerReaction   models.SellerReaction   `json:"seller_reaction"`
	CallContent      string                  `json:"call_content"`
	FollowUpPlanning string                  `json:"follow_up_planning"`
	SpecialNotes     string                  `json:"special_notes"`
	NextStatus       models.CustomerStatus   `json:"next_status"`
}

// WizardState 화면 표시용 상태
type WizardState struct {
	Step      WizardStep                `json:"step"`
	Steps     []WizardStep              `json:"steps"`
	CanGoBack bool                      `json:"can_go_back"`
	Form      WizardForm                `json:"form"`
	Templates []models.RenderedTemplate `json:"templates,omitempty"`

	// 화면 선택지
	ConnectionChoices []models.ConnectionStatus `json:"connection_choices"`
	FollowUpChoices   []FollowUpChoice          `json:"follow_up_choices"`
}

// FollowUpChoice 후속 조치 선택지와 표시 문구
type FollowUpChoice struct {
	Value models.FollowUpAction `json:"value"`
	Label string                `json:"label"`
}

func followUpChoices() []FollowUpChoice {
	choices := make([]FollowUpChoice, 0, len(models.FollowUpActionList))
	for _, a := range models.FollowUpActionList {
		choices = append(choices, FollowUpChoice{Value: a, Label: a.Label()})
	}
	return choices
}

// Wizard 고객 한 명에 대한 통화 결과 입력 상태 머신.
// connection → followup → [template] → calllog → submitted
type Wizard struct {
	mu        sync.Mutex
	customer  models.Customer
	sender    models.SenderIdentity
	templates *TemplateGenerator

	step     WizardStep
	trail    []WizardStep // 뒤로 가기용
	form     WizardForm
	seeded   string // 마지막으로 자동 입력한 통화 내용
	inFlight bool
}

// NewWizard 위저드 시작
func NewWizard(customer models.Customer, sender models.SenderIdentity, templates *TemplateGenerator) *Wizard {
	return &Wizard{
		customer:  customer,
		sender:    sender,
		templates: templates,
		step:      StepConnection,
		form:      WizardForm{FollowUpAction: models.FollowUpActions{}},
	}
}

// Step 현재 단계
func (w *Wizard) Step() WizardStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Form 현재 입력 값 복사본
func (w *Wizard) Form() WizardForm {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.copyForm()
}

func (w *Wizard) copyForm() WizardForm {
	form := w.form
	form.FollowUpAction = append(models.FollowUpActions{}, w.form.FollowUpAction...)
	return form
}

func (w *Wizard) requireStep(step WizardStep) error {
	if w.step != step {
		return utils.NewValidationError(fmt.Sprintf("%s 단계가 아닙니다 (현재: %s)", step, w.step))
	}
	return nil
}

// SelectConnection 연결 결과 선택
func (w *Wizard) SelectConnection(status models.ConnectionStatus) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStep(StepConnection); err != nil {
		return err
	}
	if !status.IsValid() {
		return utils.NewValidationError("알 수 없는 연결 상태입니다: " + string(status))
	}
	w.form.ConnectionStatus = status
	return nil
}

// ToggleFollowUp 후속 조치 선택/해제. 조치안함은 다른 조치와 배타적이며,
// 선택이 바뀔 때마다 후속 계획 문구를 다시 만든다
func (w *Wizard) ToggleFollowUp(action models.FollowUpAction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStep(StepFollowUp); err != nil {
		return err
	}
	if !action.IsValid() {
		return utils.NewValidationError("알 수 없는 후속 조치입니다: " + string(action))
	}

	current := w.form.FollowUpAction
	next := models.FollowUpActions{}
	switch {
	case current.Contains(action):
		for _, a := range current {
			if a != action {
				next = append(next, a)
			}
		}
	case action == models.FollowUpNone:
		next = append(next, models.FollowUpNone)
	default:
		for _, a := range current {
			if a != models.FollowUpNone {
				next = append(next, a)
			}
		}
		next = append(next, action)
	}

	w.form.FollowUpAction = next
	w.form.FollowUpPlanning = next.PlanningText()
	return nil
}

// Next 다음 단계로 이동. 단계별 필수 입력을 확인한다
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var next WizardStep
	switch w.step {
	case StepConnection:
		if w.form.ConnectionStatus == "" {
			return utils.NewValidationError("연결 상태를 선택해주세요")
		}
		// 사용자가 직접 고친 내용은 덮어쓰지 않는다
		if w.form.CallContent == "" || w.form.CallContent == w.seeded {
			seed := w.form.ConnectionStatus.CallContentSeed()
			w.form.CallContent = seed
			w.seeded = seed
		}
		next = StepFollowUp
	case StepFollowUp:
		if len(w.form.FollowUpAction) == 0 {
			return utils.NewValidationError("후속 조치를 하나 이상 선택해주세요")
		}
		next = StepCallLog
		if len(w.form.FollowUpAction.Channels()) > 0 {
			next = StepTemplate
		}
	case StepTemplate:
		next = StepCallLog
	default:
		return utils.NewValidationError(fmt.Sprintf("%s 단계에서는 다음으로 이동할 수 없습니다", w.step))
	}

	w.trail = append(w.trail, w.step)
	w.step = next
	return nil
}

// Back 직전 단계로 이동. 입력 값은 유지된다
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.trail) == 0 || w.step == StepSubmitted {
		return utils.NewValidationError("이전 단계가 없습니다")
	}
	w.step = w.trail[len(w.trail)-1]
	w.trail = w.trail[:len(w.trail)-1]
	return nil
}

// SetSellerReaction 셀러 반응 입력
func (w *Wizard) SetSellerReaction(reaction models.SellerReaction) error {
	if !reaction.IsValid() {
		return utils.NewValidationError("알 수 없는 셀러 반응입니다: " + string(reaction))
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.SellerReaction = reaction
	return nil
}

// SetCallContent 통화 내용 입력
func (w *Wizard) SetCallContent(content string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.CallContent = content
}

// SetFollowUpPlanning 후속 계획 직접 수정
func (w *Wizard) SetFollowUpPlanning(planning string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.FollowUpPlanning = planning
}

// SetSpecialNotes 특이사항 입력
func (w *Wizard) SetSpecialNotes(notes string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.SpecialNotes = notes
}

// SetNextStatus 제출 후 고객 상태
func (w *Wizard) SetNextStatus(status models.CustomerStatus) error {
	if !status.IsValid() {
		return utils.NewValidationError("알 수 없는 상태입니다: " + string(status))
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.NextStatus = status
	return nil
}

// Templates 선택한 채널별 메시지 템플릿
func (w *Wizard) Templates() []models.RenderedTemplate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.renderTemplates()
}

func (w *Wizard) renderTemplates() []models.RenderedTemplate {
	if w.templates == nil {
		return nil
	}
	var out []models.RenderedTemplate
	for _, ch := range w.form.FollowUpAction.Channels() {
		out = append(out, w.templates.ForChannel(ch, w.customer.Label(), &w.sender))
	}
	return out
}

// State 현재 상태 스냅샷
func (w *Wizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()

	steps := []WizardStep{StepConnection, StepFollowUp}
	if len(w.form.FollowUpAction.Channels()) > 0 {
		steps = append(steps, StepTemplate)
	}
	steps = append(steps, StepCallLog)

	return WizardState{
		Step:      w.step,
		Steps:     steps,
		CanGoBack: len(w.trail) > 0 && w.step != StepSubmitted,
		Form:      w.copyForm(),
		Templates: w.renderTemplates(),

		ConnectionChoices: append([]models.ConnectionStatus(nil), models.ConnectionStatusList...),
		FollowUpChoices:   followUpChoices(),
	}
}

func (w *Wizard) validateSubmit() error {
	if err := w.requireStep(StepCallLog); err != nil {
		return err
	}
	switch {
	case !w.form.SellerReaction.IsValid():
		return utils.NewValidationError("셀러 반응을 선택해주세요")
	case strings.TrimSpace(w.form.CallContent) == "":
		return utils.NewValidationError("주요 통화 내용은 필수 입력 항목입니다.")
	case strings.TrimSpace(w.form.FollowUpPlanning) == "":
		return utils.NewValidationError("후속 계획은 필수 입력 항목입니다.")
	case !w.form.NextStatus.IsValid():
		return utils.NewValidationError("다음 상태를 선택해주세요")
	}
	return nil
}

// Submit 통화 기록 생성 후 고객 상태 변경. 실패하면 입력 값을 유지한 채 calllog 단계에 남는다.
// 상태 변경이 실패하면 만든 통화 기록을 취소해 재시도 시 중복되지 않게 한다
func (w *Wizard) Submit(ctx context.Context, owner primitive.ObjectID, logs CallLogWriter, customers CustomerStatusWriter) (*models.CallLog, error) {
	w.mu.Lock()
	if err := w.validateSubmit(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.inFlight {
		w.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	w.inFlight = true
	form := w.copyForm()
	customerID := w.customer.ID
	w.mu.Unlock()

	created, err := w.commit(ctx, owner, customerID, form, logs, customers)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false
	if err != nil {
		return nil, err
	}
	w.trail = append(w.trail, w.step)
	w.step = StepSubmitted
	return created, nil
}

func (w *Wizard) commit(ctx context.Context, owner, customerID primitive.ObjectID, form WizardForm, logs CallLogWriter, customers CustomerStatusWriter) (*models.CallLog, error) {
	created, err := logs.Create(ctx, owner, models.CallLogInput{
		CustomerID:       customerID,
		ConnectionStatus: form.ConnectionStatus,
		FollowUpAction:   form.FollowUpAction,
		SellerReaction:   form.SellerReaction,
		CallContent:      form.CallContent,
		FollowUpPlanning: form.FollowUpPlanning,
		SpecialNotes:     form.SpecialNotes,
	})
	if err != nil {
		return nil, err
	}

	if err := customers.UpdateStatus(ctx, owner, customerID, form.NextStatus); err != nil {
		utils.LogError(err, map[string]interface{}{
			"customerId": customerID.Hex(),
			"callLogId":  created.ID.Hex(),
		}, "고객 상태 변경 실패, 통화 기록 취소 시도")

		if discardErr := logs.Discard(ctx, owner, created.ID); discardErr != nil {
			utils.LogError(discardErr, map[string]interface{}{"callLogId": created.ID.Hex()}, "통화 기록 취소 실패")
			return nil, &CommitError{CallLogID: created.ID, Err: err, DiscardErr: discardErr}
		}
		return nil, &CommitError{CallLogID: created.ID, Compensated: true, Err: err}
	}

	utils.LogInfo(map[string]interface{}{
		"customerId": customerID.Hex(),
		"callLogId":  created.ID.Hex(),
		"nextStatus": form.NextStatus,
	}, "콜 위저드 제출 완료")
	return created, nil
}

// Replay 요청 값을 단계 순서대로 적용해 calllog 단계까지 진행한다.
// 처음 막히는 단계에서 멈추고 그 오류를 반환한다
func (w *Wizard) Replay(req models.CallWizardRequest) error {
	if req.ConnectionStatus != "" {
		if err := w.SelectConnection(req.ConnectionStatus); err != nil {
			return err
		}
	}
	if err := w.Next(); err != nil {
		return err
	}
	if req.CallContent != nil {
		w.SetCallContent(*req.CallContent)
	}

	for _, action := range req.FollowUpAction {
		if err := w.ToggleFollowUp(action); err != nil {
			return err
		}
	}
	if req.FollowUpPlanning != nil {
		w.SetFollowUpPlanning(*req.FollowUpPlanning)
	}
	if err := w.Next(); err != nil {
		return err
	}
	if w.Step() == StepTemplate {
		if err := w.Next(); err != nil {
			return err
		}
	}

	if req.SellerReaction != "" {
		if err := w.SetSellerReaction(req.SellerReaction); err != nil {
			return err
		}
	}
	w.SetSpecialNotes(req.SpecialNotes)
	if req.NextStatus != "" {
		if err := w.SetNextStatus(req.NextStatus); err != nil {
			return err
		}
	}
	return nil
}
