package eventrouter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// taskChainNames mirrors the Engine's task-chain identifiers to the
// localized narration strings shown to the operator.
var taskChainNames = map[string]string{
	"StartUp":              "开始唤醒",
	"CloseDown":             "关闭游戏",
	"Fight":                 "刷理智",
	"Mall":                  "信用点及购物",
	"Recruit":               "自动公招",
	"Infrast":               "基建换班",
	"Award":                 "领取日常奖励",
	"Roguelike":             "无限刷肉鸽",
	"Copilot":               "自动抄作业",
	"SSSCopilot":            "自动抄保全作业",
	"Depot":                 "仓库识别",
	"OperBox":               "干员 box 识别",
	"ReclamationAlgorithm":  "生息演算",
	"Custom":                "自定义任务",
	"SingleStep":            "单步任务",
	"VideoRecognition":      "视频识别任务",
	"Debug":                 "调试",
}

// processTaskStepNames maps the Engine's atomic ProcessTask step
// identifiers to their narration strings.
var processTaskStepNames = map[string]string{
	"StartButton2":                    "开始战斗",
	"MedicineConfirm":                 "使用理智药",
	"ExpiringMedicineConfirm":         "使用 48 小时内过期的理智药",
	"StoneConfirm":                    "碎石",
	"RecruitRefreshConfirm":           "公招刷新标签",
	"RecruitConfirm":                  "公招确认招募",
	"RecruitNowConfirm":               "公招使用加急许可",
	"ReportToPenguinStats":            "汇报到企鹅数据统计",
	"ReportToYituliu":                 "汇报到一图流大数据",
	"InfrastDormDoubleConfirmButton":  "宿舍二次确认",
	"StartExplore":                    "肉鸽开始探索",
	"StageTraderInvestConfirm":        "肉鸽投资了源石锭",
	"StageTraderInvestSystemFull":     "肉鸽投资达到了游戏上限",
	"ExitThenAbandon":                 "肉鸽放弃了本次探索",
	"MissionCompletedFlag":            "肉鸽战斗完成",
	"MissionFailedFlag":               "肉鸽战斗失败",
	"StageTraderEnter":                "肉鸽关卡：诡异行商",
	"StageSafeHouseEnter":             "肉鸽关卡：安全的角落",
	"StageEncounterEnter":             "肉鸽关卡：不期而遇/古堡馈赠",
	"StageCombatDpsEnter":             "肉鸽关卡：普通作战",
	"StageEmergencyDps":               "肉鸽关卡：紧急作战",
	"StageDreadfulFoe":                "肉鸽关卡：险路恶敌",
	"StartGameTask":                   "打开客户端",
}

type taskChainInfo struct {
	TaskChain string `json:"taskchain"`
}

func (t taskChainInfo) name() string {
	if n, ok := taskChainNames[t.TaskChain]; ok {
		return n
	}
	return t.TaskChain
}

type subTask struct {
	Subtask string          `json:"subtask"`
	Details json.RawMessage `json:"details"`
}

type stageDrops struct {
	Stage struct {
		StageCode string `json:"stageCode"`
	} `json:"stage"`
	Stars int `json:"stars"`
	Stats []struct {
		ItemName    string `json:"itemName"`
		Quantity    int    `json:"quantity"`
		AddQuantity int    `json:"addQuantity"`
	} `json:"stats"`
}

type recruitResult struct {
	Tags  []string `json:"tags"`
	Level int      `json:"level"`
}

type subTaskExtraInfo struct {
	What    string          `json:"what"`
	Details json.RawMessage `json:"details"`
}

// Narrate produces the localized narration line for (code, payload), or
// ("", nil) when the code carries no narration. A malformed payload
// yields a non-nil error; callers log it and otherwise continue, per the
// non-fatal narration failure policy.
func Narrate(code Code, payload string) (string, error) {
	switch code {
	case InternalError:
		return "内部错误", nil
	case InitFailed:
		return "初始化失败", nil
	case AllTasksCompleted:
		return "全部任务完成", nil
	case Unknown:
		return "未知错误！", nil
	case TaskChainStart:
		t, err := parseTaskChain(payload)
		if err != nil {
			return "", err
		}
		return "开始任务：" + t.name(), nil
	case TaskChainCompleted:
		t, err := parseTaskChain(payload)
		if err != nil {
			return "", err
		}
		return "任务完成：" + t.name(), nil
	case TaskChainError:
		t, err := parseTaskChain(payload)
		if err != nil {
			return "", err
		}
		return "任务失败：" + t.name(), nil
	case TaskChainStopped:
		return "已停止", nil
	case SubTaskStart:
		return narrateSubTaskStart(payload)
	case SubTaskExtraInfo:
		return narrateSubTaskExtraInfo(payload)
	default:
		return "", nil
	}
}

func parseTaskChain(payload string) (taskChainInfo, error) {
	var t taskChainInfo
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return taskChainInfo{}, fmt.Errorf("eventrouter: parse task chain payload: %w", err)
	}
	return t, nil
}

func narrateSubTaskStart(payload string) (string, error) {
	var s subTask
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return "", fmt.Errorf("eventrouter: parse sub task payload: %w", err)
	}
	if s.Subtask != "ProcessTask" {
		return "", nil
	}
	var details struct {
		Task string `json:"task"`
	}
	if err := json.Unmarshal(s.Details, &details); err != nil {
		return "", fmt.Errorf("eventrouter: parse sub task details: %w", err)
	}
	name, ok := processTaskStepNames[details.Task]
	if !ok {
		return "", nil
	}
	return name, nil
}

func narrateSubTaskExtraInfo(payload string) (string, error) {
	var ex subTaskExtraInfo
	if err := json.Unmarshal([]byte(payload), &ex); err != nil {
		return "", fmt.Errorf("eventrouter: parse sub task extra info: %w", err)
	}
	switch ex.What {
	case "StageDrops":
		return narrateStageDrops(ex.Details)
	case "RecruitResult":
		return narrateRecruitResult(ex.Details)
	default:
		return "", nil
	}
}

func narrateStageDrops(details json.RawMessage) (string, error) {
	var d stageDrops
	if err := json.Unmarshal(details, &d); err != nil {
		return "", fmt.Errorf("eventrouter: parse stage drops: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d星通过\n材料掉落:\n", d.Stage.StageCode, d.Stars)
	for _, s := range d.Stats {
		fmt.Fprintf(&b, "'%s'*%d (+%d)\n", s.ItemName, s.Quantity, s.AddQuantity)
	}
	return b.String(), nil
}

func narrateRecruitResult(details json.RawMessage) (string, error) {
	var r recruitResult
	if err := json.Unmarshal(details, &r); err != nil {
		return "", fmt.Errorf("eventrouter: parse recruit result: %w", err)
	}
	return fmt.Sprintf("公招标签（%d星）:%v\n", r.Level, r.Tags), nil
}
