package normalize

// Candidate source keys per canonical field. Keys are compared after
// folding, so "CODIGO", "Código" and "codigo_cups" need no separate entries
// beyond their folded spelling.

var ProcedureSchema = Schema{
	"code":                   {"codigo", "codigo_cups", "cups", "cod_cups", "codigo_procedimiento", "cod"},
	"description":            {"descripcion", "nombre", "nombre_procedimiento", "descripcion_cups", "procedimiento", "name"},
	"category":               {"categoria", "grupo", "capitulo"},
	"specialty":              {"especialidad", "specialty_name"},
	"tariffSchema2001":       {"tarifa_iss_2001", "iss_2001", "tarifa_2001", "valor_iss_2001"},
	"tariffSchema2004":       {"tarifa_iss_2004", "iss_2004", "tarifa_2004", "valor_iss_2004"},
	"tariffCurrent":          {"tarifa", "tarifa_soat", "soat", "valor", "tarifa_actual", "precio"},
	"relativeValueUnit":      {"uvr", "uvt", "unidad_valor_relativo", "rvu"},
	"active":                 {"activo", "estado", "vigente", "habilitado"},
	"requiresAuthorization":  {"requiere_autorizacion", "autorizacion"},
	"averageDurationMinutes": {"duracion", "duracion_minutos", "tiempo_promedio"},
	"complexityLevel":        {"complejidad", "nivel_complejidad"},
	"requiresOperatingRoom":  {"requiere_quirofano", "quirofano", "sala_cirugia"},
}

var DiagnosisSchema = Schema{
	"code":                    {"codigo", "codigo_cie10", "cie10", "cie_10", "cod_dx", "diagnostico_codigo", "cod"},
	"description":             {"descripcion", "nombre", "nombre_diagnostico", "diagnostico", "descripcion_cie10", "name"},
	"category":                {"categoria", "capitulo"},
	"subcategory":             {"subcategoria", "grupo", "subgrupo"},
	"injuryType":              {"tipo_lesion", "lesion"},
	"severity":                {"severidad", "gravedad"},
	"isChronic":               {"cronica", "es_cronica", "cronico"},
	"requiresHospitalization": {"requiere_hospitalizacion", "hospitalizacion"},
	"active":                  {"activo", "estado", "habilitado"},
}

var DrugSchema = Schema{
	"cumCode":               {"cum", "codigo_cum", "expedientecum", "expediente_cum", "cod_cum", "id_cum"},
	"consecutive":           {"consecutivocum", "consecutivo_cum", "consecutivo"},
	"atcCode":               {"atc", "codigo_atc", "cod_atc"},
	"activeIngredient":      {"principioactivo", "principio_activo", "descripcionatc", "nombre_generico", "generico", "molecula"},
	"brandName":             {"producto", "nombre_comercial", "marca", "nombre_producto"},
	"concentration":         {"cantidad", "concentracion", "dosis", "fortaleza"},
	"unitOfMeasure":         {"unidadmedida", "unidad_medida", "unidad"},
	"pharmaceuticalForm":    {"formafarmaceutica", "forma_farmaceutica", "forma"},
	"routes":                {"viaadministracion", "via_administracion", "via", "vias", "routesOfAdministration"},
	"presentation":          {"descripcioncomercial", "descripcion_comercial", "presentacion", "presentacion_comercial"},
	"unitPrice":             {"precio_unitario", "valor_unitario", "precio_regulado", "precio_maximo"},
	"salePrice":             {"precio_venta", "pvp", "valor_venta"},
	"manufacturer":          {"titular", "fabricante", "laboratorio", "nombrerol"},
	"sanitaryRegistration":  {"registrosanitario", "registro_sanitario", "registro_invima"},
	"registrationExpiresOn": {"fechavencimiento", "fecha_vencimiento", "vencimiento"},
	"registrationStatus":    {"estadoregistro", "estado_registro"},
	"cumStatus":             {"estadocum", "estado_cum"},
	"isInNationalFormulary": {"pos", "pbs", "plan_beneficios", "incluido_pbs", "en_formulario"},
	"requiresPrescription":  {"requiere_formula", "venta_con_formula", "formula_medica", "condicionventa"},
	"isControlledSubstance": {"control_especial", "controlado", "monopolio_estado"},
	"active":                {"activo"},
}

var SupplySchema = Schema{
	"code":                  {"codigo", "codigo_material", "cod_material", "referencia", "cod"},
	"description":           {"descripcion", "nombre", "nombre_material", "material"},
	"category":              {"categoria", "grupo", "tipo"},
	"unit":                  {"unidad", "unidad_medida", "presentacion"},
	"unitPrice":             {"precio", "precio_unitario", "valor", "valor_unitario"},
	"manufacturer":          {"fabricante", "proveedor", "marca"},
	"requiresSterilization": {"esteril", "requiere_esterilizacion", "esterilizacion"},
	"active":                {"activo", "estado"},
}
