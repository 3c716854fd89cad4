package promptFilter

// Detector names are stable tags used in logs and metrics.
const (
	PatternSystemPromptEN      = "system_prompt_en"
	PatternSystemPromptKO      = "system_prompt_ko"
	PatternIgnorePrevEN        = "ignore_prev_en"
	PatternIgnorePrevKO        = "ignore_prev_ko"
	PatternRoleManipulationEN  = "role_manipulation_en"
	PatternRoleManipulationKO  = "role_manipulation_ko"
	PatternJailbreakEN         = "jailbreak_en"
	PatternJailbreakKO         = "jailbreak_ko"
	PatternZeroWidth           = "zero_width"
	PatternBase64Payload       = "base64_payload"
	PatternDelimiterInjection  = "delimiter_injection"
	PatternCodeFenceSystemRole = "code_fence_system"
)

// DefaultDetectors is the ordered blocklist used in production.
//
// base64_payload matches any run of 40+ base64 alphabet characters, so long
// tokens such as hashes or URL slugs without separators are rejected too.
func DefaultDetectors() []Detector {
	return []Detector{
		RegexDetector(PatternSystemPromptEN,
			`(?i)\b(show|reveal|print|repeat|display|tell|give|output|leak|what\s+(is|are))\b.{0,30}\b(your|the)\s+(system\s+prompt|initial\s+(prompt|instructions)|hidden\s+(prompt|instructions)|instructions\s+above)`),
		RegexDetector(PatternSystemPromptKO,
			`(시스템|숨겨진|초기|원래)\s*(프롬프트|지시문|지침|명령어?)\s*(을|를|이|가)?\s*(보여|알려|출력|공개|말해|노출)`),
		RegexDetector(PatternIgnorePrevEN,
			`(?i)\b(ignore|disregard|forget|override|bypass)\b.{0,20}\b(all\s+)?(the\s+)?(previous|prior|above|earlier|preceding|your)\s+(instructions?|prompts?|rules|directions|guidelines)`),
		RegexDetector(PatternIgnorePrevKO,
			`(이전|앞의?|위의?|기존|지금까지의?)\s*(의\s*)?(모든\s*)?(지시|명령|지침|규칙|프롬프트|설정)(사항|문)?\s*(을|를|은|는|들을)?\s*(모두\s*|전부\s*|다\s*)?(무시|잊어|잊고|무효|취소)`),
		RegexDetector(PatternRoleManipulationEN,
			`(?i)\b(you\s+are\s+now|from\s+now\s+on\s+you\s+are|act\s+as\s+(an?\s+)?(unrestricted|unfiltered|evil|different)|pretend\s+(to\s+be|you\s+are)|roleplay\s+as|new\s+role\s*:)`),
		RegexDetector(PatternRoleManipulationKO,
			`(지금부터|이제부터|앞으로)\s*(너는|넌|당신은)|역할\s*을?\s*(바꿔|변경|무시)|(처럼|인\s*척)\s*(행동|연기)해`),
		RegexDetector(PatternJailbreakEN,
			`(?i)\b(jailbreak|DAN\s+mode|developer\s+mode|do\s+anything\s+now|no\s+restrictions|without\s+(any\s+)?(restrictions|filters|limitations))\b`),
		RegexDetector(PatternJailbreakKO,
			`(탈옥|제한\s*(없이|해제|을\s*풀어)|필터\s*(없이|해제|우회)|검열\s*(없이|해제)|개발자\s*모드)`),
		RegexDetector(PatternZeroWidth, "[\u200B\u200C\u200D\uFEFF]"),
		RegexDetector(PatternBase64Payload, `[A-Za-z0-9+/]{40,}={0,2}`),
		RegexDetector(PatternDelimiterInjection,
			`(?i)(<\|?\s*(system|im_start|im_end|endoftext)\s*\|?>|\[/?(INST|SYS)\]|<<\s*/?SYS\s*>>|#{2,}\s*(system|instruction)s?\b|</?\s*system\s*>)`),
		RegexDetector(PatternCodeFenceSystemRole, "(?i)```\\s*(system|instructions?|prompt)\\b"),
	}
}
