package repository

import (
	"sort"
	"testing"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/model"
)

func TestClassifyPublish_DraftAndReady(t *testing.T) {
	draft, ready := uuid.New(), uuid.New()
	states := map[uuid.UUID]model.CandidateState{
		draft: model.CandidateDraft,
		ready: model.CandidateReady,
	}

	toPublish, offending := classifyPublish([]uuid.UUID{draft, ready}, states)

	if len(toPublish) != 2 {
		t.Fatalf("草稿和就绪班次都应进入待发布，got %d", len(toPublish))
	}
	if len(offending) != 0 {
		t.Errorf("不应有违规班次，got %v", offending)
	}
}

func TestClassifyPublish_RepublishNoOp(t *testing.T) {
	// 重复发布同一批已确认班次：待发布为空，不报违规
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	states := make(map[uuid.UUID]model.CandidateState, len(ids))
	for _, id := range ids {
		states[id] = model.CandidateConfirmed
	}

	toPublish, offending := classifyPublish(ids, states)

	if len(toPublish) != 0 {
		t.Errorf("已确认班次重复发布应为无操作，got %d 个待发布", len(toPublish))
	}
	if len(offending) != 0 {
		t.Errorf("已确认班次不应计入违规，got %v", offending)
	}
}

func TestClassifyPublish_MissingIDBlocksBatch(t *testing.T) {
	draft, missing := uuid.New(), uuid.New()
	states := map[uuid.UUID]model.CandidateState{
		draft: model.CandidateDraft,
	}

	_, offending := classifyPublish([]uuid.UUID{draft, missing}, states)

	// 任一班次缺失必须报违规，调用方据此回滚整批
	if len(offending) != 1 || offending[0] != missing.String() {
		t.Fatalf("缺失班次应计入违规，got %v", offending)
	}
}

func TestClassifyPublish_ConflictedStateOffending(t *testing.T) {
	conflicted, ready := uuid.New(), uuid.New()
	states := map[uuid.UUID]model.CandidateState{
		conflicted: model.CandidateConflicted,
		ready:      model.CandidateReady,
	}

	toPublish, offending := classifyPublish([]uuid.UUID{conflicted, ready}, states)

	if len(offending) != 1 || offending[0] != conflicted.String() {
		t.Fatalf("冲突状态班次应计入违规，got %v", offending)
	}
	// 待发布列表仍然划出，但存在违规时调用方不会执行它
	if len(toPublish) != 1 {
		t.Errorf("就绪班次应进入待发布列表，got %d", len(toPublish))
	}
}

func TestClassifyPublish_OffendingSorted(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}

	_, offending := classifyPublish(ids, nil)

	if len(offending) != len(ids) {
		t.Fatalf("全部缺失时违规数应为 %d，got %d", len(ids), len(offending))
	}
	if !sort.StringsAreSorted(offending) {
		t.Errorf("违规ID应按字典序排列，got %v", offending)
	}
}
