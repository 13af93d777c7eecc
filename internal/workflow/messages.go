package workflow

// User-facing messages stored in the view.
const (
	MsgIndividualRequired = "이력서 PDF와 JD는 필수 입력 항목입니다."
	MsgBulkRequired       = "이력서와 JD는 필수 입력 항목입니다."
	MsgBulkMinResumes     = "여러 이력서 동시 분석을 위해서는 최소 2개 이상의 이력서 파일이 필요합니다."
	MsgRequestFailed      = "리포트 생성 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	MsgFinalFailed        = "최종 후보자 분석 중 오류가 발생했습니다."
	MsgTooManyResumes     = "최대 %d개의 이력서만 업로드할 수 있습니다. %d개까지만 추가되었습니다."
	MsgReportUnparsable   = "리포트 형식을 해석할 수 없습니다. 다시 분석해주세요."

	LoadingIndividual = "AI가 지원자의 서류를 꼼꼼하게 검토하고 있습니다..."
	LoadingBulk       = "여러 이력서를 JD와 비교 분석 중입니다..."
	LoadingFinal      = "포트폴리오를 반영하여 최종 후보자를 선별 중입니다..."
)
