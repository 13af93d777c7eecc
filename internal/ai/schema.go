package ai

func stringList(description string) *Schema {
	return &Schema{Type: TypeArray, Description: description, Items: &Schema{Type: TypeString}}
}

func object(props map[string]*Schema, order ...string) *Schema {
	return &Schema{Type: TypeObject, Properties: props, Required: order, Ordering: order}
}

// InitialSchema is the response shape of the first bulk pass.
func InitialSchema() *Schema {
	return &Schema{
		Type:        TypeArray,
		Description: "점수 내림차순으로 정렬된 상위 후보자 목록",
		Items: object(map[string]*Schema{
			"candidateId": {Type: TypeInteger, Description: "지원자 목록의 번호 (1부터 시작)"},
			"fileName":    {Type: TypeString, Description: "이력서 파일 이름"},
			"score":       {Type: TypeInteger, Description: "100점 만점 적합도 점수"},
			"summary":     {Type: TypeString, Description: "한 줄 요약"},
			"greenFlags":  stringList("긍정적 신호"),
			"redFlags":    stringList("확인 필요 사항"),
		}, "candidateId", "fileName", "score", "summary", "greenFlags", "redFlags"),
	}
}

// FinalSchema is the response shape of the second bulk pass.
func FinalSchema() *Schema {
	questions := object(map[string]*Schema{
		"technical":  stringList("기술 역량 질문"),
		"behavioral": stringList("경험 기반 질문"),
		"cultural":   stringList("문화 적합성 질문"),
	}, "technical", "behavioral", "cultural")

	return &Schema{
		Type:        TypeArray,
		Description: "최종 점수 내림차순으로 정렬된 최종 후보자 목록",
		Items: object(map[string]*Schema{
			"candidateId":           {Type: TypeInteger, Description: "1단계 결과의 후보자 ID"},
			"fileName":              {Type: TypeString},
			"finalScore":            {Type: TypeInteger, Description: "포트폴리오를 반영한 최종 점수"},
			"finalSummary":          {Type: TypeString},
			"interviewQuestions":    questions,
			"verificationChecklist": stringList("검증 체크리스트"),
		}, "candidateId", "fileName", "finalScore", "finalSummary", "interviewQuestions", "verificationChecklist"),
	}
}
