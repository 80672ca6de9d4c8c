package engine

import "strings"

// fieldTable declares every extracted field in resolution order. The
// field names match the chart columns verbatim, accents included, so
// results line up with the ground-truth spreadsheet without a mapping
// layer. Derived fields that read other fields come after them.
var fieldTable = []Descriptor{
	{Name: "sexo", Domain: intDomain(1, 2, "sexo do paciente (1=feminino, 2=masculino)", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveSexo},
	{Name: "dt_SO", Domain: dateDomain("data da cirurgia principal"), Merge: MergeRuleOnly, Derive: deriveAnchorDate},
	{
		Name:      "idade",
		Domain:    intDomain(1, 99, "idade do paciente na data da cirurgia principal", "número inteiro"),
		Threshold: 3,
		Merge:     MergeRuleFirst,
		Generate:  generateIdade,
	},
	{Name: "local_tumor", Domain: textDomain("localização do tumor no reto/sigmoide"), Merge: MergeRuleOnly, Derive: deriveLocalTumor},
	{Name: "altura_tumor", Domain: decDomain(0, 99, "altura do tumor em cm da borda anal", "número decimal"), Merge: MergeRuleOnly, Derive: deriveAlturaTumor},
	{
		Name:      "ASA",
		Domain:    intDomain(1, 4, "classificação ASA pré-operatória (1-4)", "número inteiro de 1 a 4"),
		Threshold: 2,
		Merge:     MergeRuleFirst,
		Generate:  generateASA,
		Parse:     parseASA,
	},
	{
		Name:      "ECOG",
		Domain:    intDomain(0, 4, "performance status ECOG pré-operatório (0-4)", "número inteiro de 0 a 4"),
		Threshold: 2,
		Merge:     MergeRuleFirst,
		Generate:  generateECOG,
		Parse:     parseECOG,
	},
	{
		Name:     "KPS",
		Domain:   intDomain(0, 100, "escala de Karnofsky pré-operatória (0-100)", "número inteiro"),
		Merge:    MergeRuleOnly,
		Generate: generateKPS,
	},
	{
		Name:      "IMC",
		Domain:    decDomain(10, 50, "índice de massa corporal pré-operatório", "número decimal"),
		Threshold: 3,
		Merge:     MergeRuleFirst,
		Generate:  generateIMC,
	},
	{Name: "QRT_neo", Domain: intDomain(0, 1, "radioterapia neoadjuvante realizada", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveQRTNeo},
	{Name: "eletiva", Domain: intDomain(0, 1, "cirurgia eletiva", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveEletiva},
	{Name: "cirurgia_recidiva", Domain: intDomain(0, 1, "cirurgia realizada por recidiva", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveCirurgiaRecidiva},
	{Name: "paliativa", Domain: intDomain(0, 1, "cirurgia paliativa", "0 ou 1"), Merge: MergeRuleOnly, Derive: derivePaliativa},

	{Name: "utero", Domain: intDomain(0, 1, "útero envolvido na ressecção", "0 ou 1"), Merge: MergeRuleOnly, Derive: organDerive("utero")},
	{Name: "vagina", Domain: intDomain(0, 1, "vagina envolvida na ressecção", "0 ou 1"), Merge: MergeRuleOnly, Derive: organDerive("vagina")},
	{Name: "ovario", Domain: intDomain(0, 1, "ovário envolvido na ressecção", "0 ou 1"), Merge: MergeRuleOnly, Derive: organDerive("ovario")},
	{Name: "bexiga", Domain: intDomain(0, 1, "bexiga envolvida na ressecção", "0 ou 1"), Merge: MergeRuleOnly, Derive: organDerive("bexiga")},
	{Name: "ureter", Domain: intDomain(0, 1, "ureter envolvido na ressecção", "0 ou 1"), Merge: MergeRuleOnly, Derive: organDerive("ureter")},
	{Name: "prostata", Domain: intDomain(0, 1, "próstata envolvida na ressecção", "0 ou 1"), Merge: MergeRuleOnly, Derive: organDerive("prostata")},
	{Name: "vesicula_sem", Domain: intDomain(0, 1, "vesícula envolvida na ressecção", "0 ou 1"), Merge: MergeRuleOnly, Derive: organDerive("vesicula_sem")},
	{Name: "sacro", Domain: intDomain(0, 1, "sacro envolvido na ressecção", "0 ou 1"), Merge: MergeRuleOnly, Derive: organDerive("sacro")},
	{Name: "bexiga_tudo", Domain: intDomain(0, 1, "ressecção total da bexiga", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveBexigaTudo},
	{Name: "bexiga_parte", Domain: intDomain(0, 1, "ressecção parcial da bexiga", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveBexigaParte},
	{Name: "outro_orgao", Domain: intDomain(0, 1, "outro órgão envolvido", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveOutroOrgao},
	{Name: "outro_orgao_qual", Domain: textDomain("qual outro órgão foi envolvido"), Merge: MergeRuleOnly, Derive: deriveOutroOrgaoQual},
	{Name: "n_orgaos", Domain: intDomain(1, 10, "número de órgãos envolvidos", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveNOrgaos},
	{Name: "amputação", Domain: intDomain(0, 1, "amputação realizada", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveAmputacao},
	{Name: "RTS", Domain: intDomain(0, 1, "ressecção total do sigmoide", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveRTS},
	{Name: "cole_total", Domain: intDomain(0, 1, "colectomia total na cirurgia principal", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveColeTotal},
	{Name: "posterior", Domain: intDomain(0, 1, "exenteração/ressecção posterior", "0 ou 1"), Merge: MergeRuleOnly, Derive: derivePosterior},
	{Name: "total", Domain: intDomain(0, 1, "ressecção total", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveTotal},
	{Name: "SLE", Domain: intDomain(0, 1, "síndrome hereditária (Lynch/HNPCC)", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveSLE},
	{Name: "REC_plastica", Domain: intDomain(0, 1, "reconstrução com plástica", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveRECPlastica},
	{Name: "tipo_REC", Domain: textDomain("tipo de reconstrução urinária (0=briker, 1=duplo barril, 2=duplo barril ileal, 3=nefrostomia)"), Merge: MergeRuleOnly, Derive: deriveTipoREC},
	{Name: "tempo_SO", Domain: intDomain(0, 0, "tempo desde a cirurgia em dias", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveAbsent},
	{Name: "CH_intra_OP", Domain: intDomain(0, 1, "quimioterapia intra-operatória", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveCHIntraOP},
	{Name: "CH_num", Domain: intDomain(1, 50, "número de ciclos de quimioterapia", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveCHNum},

	{Name: "dias_uti", Domain: intDomain(0, 365, "dias de permanência em UTI", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveDiasUTI},
	{Name: "dias_internação", Domain: intDomain(0, 365, "dias de internação", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveDiasInternacao},
	{Name: "dt_alta", Domain: dateDomain("data da alta hospitalar"), Merge: MergeRuleOnly, Derive: deriveDtAlta},
	{Name: "complicação", Domain: intDomain(0, 1, "complicação pós-operatória", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveComplicacao},
	{Name: "complicação_qual", Domain: textDomain("qual a complicação pós-operatória"), Merge: MergeRuleOnly, Derive: deriveComplicacaoQual},
	{Name: "tto", Domain: textDomain("tratamento da complicação"), Merge: MergeRuleOnly, Derive: deriveAbsent},
	{Name: "Clavien", Domain: textDomain("classificação de Clavien-Dindo (0-5)"), Merge: MergeRuleOnly, Derive: deriveClavien},
	{Name: "Clavien_v2", Domain: intDomain(0, 5, "classificação de Clavien-Dindo numérica", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveClavienV2},
	{Name: "reinternação", Domain: intDomain(0, 1, "houve reinternação", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveReinternacao},
	{Name: "data da reinternação", Domain: dateDomain("data da reinternação"), Merge: MergeRuleOnly, Derive: deriveDataReinternacao},
	{Name: "motivo_reinternação", Domain: textDomain("motivo da reinternação"), Merge: MergeRuleOnly, Derive: deriveMotivoReinternacao},
	{Name: "re_op_90dias", Domain: intDomain(0, 1, "reoperação em até 90 dias", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveReOp90Dias},
	{Name: "re_op_achado", Domain: textDomain("achado da reoperação"), Merge: MergeRuleOnly, Derive: deriveAbsent},
	{Name: "obito_90dias", Domain: intDomain(0, 1, "óbito em até 90 dias", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveObito90Dias},

	{Name: "histologia", Domain: textDomain("tipo histológico do tumor"), Merge: MergeRuleOnly, Derive: deriveHistologia},
	{
		Name:     "AP",
		Domain:   textDomain("estadiamento TNM anatomopatológico (ex: pT4b pN1b pM0)"),
		Merge:    MergeOracleFirst,
		Generate: generateAP,
		Parse:    parseAPAnswer,
	},
	{Name: "estadiamento", Domain: intDomain(0, 4, "estadiamento clínico (0-4)", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveEstadiamento},
	{Name: "T", Domain: textDomain("componente T do TNM"), Merge: MergeRuleOnly, Derive: deriveT},
	{Name: "N", Domain: textDomain("linfonodos acometidos sobre examinados (ex: 2/26)"), Merge: MergeRuleOnly, Derive: deriveN},
	{Name: "N_A", Domain: intDomain(0, 100, "número de linfonodos acometidos", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveNA},
	{Name: "invasão", Domain: textDomain("descrição da invasão tumoral"), Merge: MergeRuleOnly, Derive: deriveInvasao},
	{Name: "R0_R1_R2", Domain: textDomain("margem cirúrgica (R0, R1 ou R2)"), Merge: MergeRuleOnly, Derive: deriveR0R1R2},
	{Name: "R0_R1_R2_v2", Domain: intDomain(0, 2, "margem cirúrgica numérica", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveR0R1R2V2},
	{Name: "QT_adjuvante", Domain: intDomain(0, 1, "quimioterapia adjuvante realizada", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveQTAdjuvante},
	{Name: "recidiva", Domain: intDomain(0, 1, "houve recidiva", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveRecidiva},
	{Name: "recidiva_local", Domain: textDomain("local da recidiva"), Merge: MergeRuleOnly, Derive: deriveRecidivaLocal},
	{Name: "recidiva_local_v2", Domain: intDomain(0, 1, "recidiva localizada", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveRecidivaLocalV2},
	{Name: "dt_recidiva", Domain: dateDomain("data da recidiva"), Merge: MergeRuleOnly, Derive: deriveDtRecidiva},
	{Name: "DFSMESES", Domain: intDomain(0, 0, "sobrevida livre de doença em meses", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveAbsent},
	{Name: "fisiatria", Domain: intDomain(0, 1, "acompanhamento de fisiatria", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveFisiatria},
	{Name: "paliativo_grupo_dor", Domain: intDomain(0, 1, "acompanhamento paliativo do grupo de dor", "0 ou 1"), Merge: MergeRuleOnly, Derive: derivePaliativoGrupoDor},
	{Name: "grupo_dor", Domain: intDomain(0, 1, "acompanhamento do grupo de dor", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveGrupoDor},
	{Name: "ult_consulta", Domain: dateDomain("data da última consulta"), Merge: MergeRuleOnly, Derive: deriveUltConsulta},
	{Name: "OS_meses", Domain: intDomain(0, 0, "sobrevida global em meses", "número inteiro"), Merge: MergeRuleOnly, Derive: deriveAbsent},
	{Name: "obito", Domain: intDomain(0, 1, "óbito registrado", "0 ou 1"), Merge: MergeRuleOnly, Derive: deriveObito},
	{Name: "dt_obito", Domain: dateDomain("data do óbito"), Merge: MergeRuleOnly, Derive: deriveDtObito},
	{Name: "obito_motivo", Domain: textDomain("motivo do óbito"), Merge: MergeRuleOnly, Derive: deriveObitoMotivo},
	{Name: "assistente", Domain: textDomain("médico assistente"), Merge: MergeRuleOnly, Derive: deriveAbsent},
	{Name: "observação", Domain: textDomain("observações livres"), Merge: MergeRuleOnly, Derive: deriveAbsent},
}

// parseAPAnswer keeps the TNM rendering's case (pT4B pN1B pM0) instead
// of the generic lowered text parse.
func parseAPAnswer(raw string) (Value, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Absent(), false
	}
	return TextVal(raw), true
}
